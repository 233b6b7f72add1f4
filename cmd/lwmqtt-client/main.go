package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonny12375/lwmqtt"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfgPath := flag.String("config", "", "Path to YAML config file")
	host := flag.String("host", "127.0.0.1", "Broker host")
	port := flag.Uint("port", 1883, "Broker port")
	topic := flag.String("topic", "lwmqtt/demo", "Topic to subscribe and publish")
	debug := flag.Bool("debug", false, "Enable protocol traces")
	flag.Parse()

	lwmqtt.Debug = *debug

	cfg := &lwmqtt.Config{}
	if *cfgPath != "" {
		var err error
		if cfg, err = lwmqtt.LoadConfig(*cfgPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if cfg.Broker.Host != "" {
		*host = cfg.Broker.Host
	}
	if cfg.Broker.Port != 0 {
		*port = uint(cfg.Broker.Port)
	}
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = 60
	}

	c, err := lwmqtt.New(cfg.Options()...)
	if err != nil {
		log.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	if cfg.HTTP != "" {
		group.Go(func() error {
			return lwmqtt.Httpd(cfg.HTTP)
		})
	}

	events := func(c *lwmqtt.Client, evt *lwmqtt.Event) {
		switch evt.Type {
		case lwmqtt.EventConnect:
			if evt.Connect.Status != lwmqtt.ConnStatusAccepted {
				log.Printf("connect refused: status=0x%x", int(evt.Connect.Status))
				cancel()
				return
			}
			log.Printf("connected, subscribing: topic=%s", *topic)
			if err := c.Subscribe(*topic, lwmqtt.QoS1, nil); err != nil {
				log.Printf("subscribe: %v", err)
			}
		case lwmqtt.EventSubscribe:
			log.Printf("subscribed: topic=%s, err=%v", evt.Sub.Topic, evt.Sub.Err)
		case lwmqtt.EventPublish:
			log.Printf("publish done: err=%v", evt.Publish.Err)
		case lwmqtt.EventPublishRecv:
			log.Printf("recv: topic=%s, qos=%d, payload=%s", evt.Recv.Topic, evt.Recv.QoS, evt.Recv.Payload)
		case lwmqtt.EventKeepAlive:
			log.Printf("keep-alive ok")
		case lwmqtt.EventDisconnect:
			log.Printf("disconnected: accepted=%v", evt.Disconnect.IsAccepted)
			cancel()
		}
	}

	if err := c.Connect(*host, uint16(*port), events, cfg.SessionInfo()); err != nil {
		log.Fatalf("connect: %v", err)
	}

	group.Go(func() error {
		tick := time.NewTicker(time.Second)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-tick.C:
				if !c.IsConnected() {
					continue
				}
				if err := c.Publish(*topic, []byte(now.Format(time.RFC3339)), lwmqtt.QoS0, false, nil); err != nil {
					log.Printf("publish: %v", err)
				}
			}
		}
	})

	group.Go(func() error {
		defer cancel()
		sign := make(chan os.Signal, 1)
		signal.Notify(sign, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-ctx.Done():
		case s := <-sign:
			log.Printf("signal: %v", s)
			_ = c.Disconnect()
		}
		return nil
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Printf("exit: %v", err)
	}
}
