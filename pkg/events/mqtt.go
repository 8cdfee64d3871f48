package events

import (
	"context"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

// MQTTOptions configures the MQTT forwarder.
type MQTTOptions struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
}

type mqttClient interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) mqttClient {
	return paho.NewClient(opts)
}

// MQTTForwarder republishes hub events to an MQTT broker, one topic per event
// name under TopicPrefix.
type MQTTForwarder struct {
	cli    mqttClient
	prefix string
	qos    byte
}

// NewMQTTForwarder connects to the broker.
func NewMQTTForwarder(o MQTTOptions) (*MQTTForwarder, error) {
	if o.Broker == "" {
		return nil, pkgerrors.New("mqtt broker is empty")
	}
	if o.ClientID == "" {
		o.ClientID = "bmsdash"
	}
	if o.TopicPrefix == "" {
		o.TopicPrefix = "bmsdash"
	}

	opts := paho.NewClientOptions().AddBroker(o.Broker).SetClientID(o.ClientID)
	opts.AutoReconnect = true
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logrus.Errorf("mqtt connection lost: %v", err)
	}

	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, pkgerrors.Wrapf(token.Error(), "failed to connect to mqtt broker %s", o.Broker)
	}
	logrus.WithFields(logrus.Fields{
		"broker":      o.Broker,
		"topicPrefix": o.TopicPrefix,
	}).Info("mqtt forwarder connected")

	return &MQTTForwarder{cli: cli, prefix: strings.TrimSuffix(o.TopicPrefix, "/"), qos: o.QoS}, nil
}

// Topic returns the topic an event is forwarded to.
func (f *MQTTForwarder) Topic(name string) string {
	return f.prefix + "/" + name
}

// Forward publishes a single event.
func (f *MQTTForwarder) Forward(e Event) error {
	token := f.cli.Publish(f.Topic(e.Name), f.qos, false, []byte(e.Data))
	if !token.WaitTimeout(publishTimeout) {
		return pkgerrors.Errorf("timed out publishing %s", e.Name)
	}
	return token.Error()
}

// Run forwards hub events until ctx is done.
func (f *MQTTForwarder) Run(ctx context.Context, hub *EventHub) {
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := f.Forward(e); err != nil {
				logrus.Warnf("failed to forward event %s to mqtt: %v", e.Name, err)
			}
		}
	}
}

// Close disconnects from the broker.
func (f *MQTTForwarder) Close() {
	f.cli.Disconnect(250)
}
