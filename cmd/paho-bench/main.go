// paho-bench floods a broker with paho clients to exercise a lwmqtt client
// subscribed to the same topics.
package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang-io/requests"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	server := flag.String("server", "tcp://127.0.0.1:1883", "Broker URL")
	maxConn := flag.Int("conns", 100, "Number of concurrent clients")
	flag.Parse()

	group := sync.WaitGroup{}
	for i := 0; i < *maxConn; i++ {
		group.Add(1)
		go func() {
			defer group.Done()
			pahoMqttStart(*server, i)
		}()
	}
	group.Wait()
}

func onMessageReceived(client paho_mqtt.Client, message paho_mqtt.Message) {
	log.Printf("topic:%s, msg:%s", message.Topic(), message.Payload())
}

func pahoMqttStart(server string, i int) {
	qos := byte(0x00)
	id := requests.GenId()
	connOpts := paho_mqtt.NewClientOptions().AddBroker(server).SetClientID(id).SetCleanSession(true)
	connOpts.SetAutoReconnect(false)

	client := paho_mqtt.NewClient(connOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		panic(token.Error())
	}
	fmt.Printf("Connected to %s\n", server)

	if token := client.Subscribe("+", qos, onMessageReceived); token.Wait() && token.Error() != nil {
		panic(token.Error())
	}

	timer := time.NewTimer(0 * time.Second)
	for {
		select {
		case <-timer.C:
			if t := client.Publish(fmt.Sprintf("lwmqtt/bench_%02d", i), qos, false, fmt.Sprintf("paho_mqtt:test-%02d", i)); t.Wait() && t.Error() != nil {
				log.Println(t.Error())
				panic(t.Error())
			}
			timer.Reset(time.Second)
		}
	}
}
