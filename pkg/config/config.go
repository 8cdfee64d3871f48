package config

import "github.com/sirupsen/logrus"

type Config interface {
	Listen() string
	DefaultCellCount() int
	DefaultChemistry() string
	RefreshIntervals() []int
	Seed() uint64
	MQTT() MQTT

	SetDefaultCellCount(int)
	SetDefaultChemistry(string)

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}

// MQTT holds the optional event forwarding settings. Forwarding is off when
// Broker is empty.
type MQTT struct {
	Broker      string `json:"broker,omitempty"`
	ClientID    string `json:"clientId,omitempty"`
	TopicPrefix string `json:"topicPrefix,omitempty"`
}

// Enabled reports whether a broker is configured.
func (m MQTT) Enabled() bool {
	return m.Broker != ""
}
