package lwmqtt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
broker:
  host: broker.local
  port: 8883
  scheme: mqtts
clientId: sensor-7
username: root
password: admin
keepAlive: 30
will:
  topic: sensors/7/status
  message: offline
  qos: 1
  retain: true
txBufferSize: 8192
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "broker.local", cfg.Broker.Host)
	assert.Equal(t, uint16(8883), cfg.Broker.Port)
	assert.Equal(t, "mqtts", cfg.Broker.Scheme)

	info := cfg.SessionInfo()
	assert.Equal(t, "sensor-7", info.ClientID)
	assert.Equal(t, "root", info.Username)
	assert.Equal(t, uint16(30), info.KeepAlive)
	assert.Equal(t, "sensors/7/status", info.WillTopic)
	assert.Equal(t, []byte("offline"), info.WillMessage)
	assert.Equal(t, QoS1, info.WillQoS)
	assert.True(t, info.WillRetain)

	opts := newOptions(cfg.Options()...)
	assert.Equal(t, "mqtts", opts.Scheme)
	assert.Equal(t, 8192, opts.TxBufferSize)
	assert.Equal(t, 1024, opts.RxBufferSize, "unset value keeps the default")
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("broker: ["), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
