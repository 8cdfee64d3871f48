package config

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/bmsdash/pkg/utils/ptr"
)

// EnvPrefix prefixes environment overrides, e.g. BMSDASH_LISTEN or
// BMSDASH_MQTT__BROKER ("__" separates nested keys).
const EnvPrefix = "BMSDASH_"

var (
	defaultFileConfig = &RawFileConfig{
		Listen:           ptr.To("127.0.0.1:8765"),
		DefaultCellCount: ptr.To(3),
		DefaultChemistry: ptr.To("lfp"),
		RefreshIntervals: []int{5, 10, 30, 60},
		Seed:             ptr.To(uint64(0)),
	}

	// envKeys maps flattened, lower-cased environment key segments to config keys.
	envKeys = map[string]string{
		"listen":           "listen",
		"defaultcellcount": "defaultCellCount",
		"defaultchemistry": "defaultChemistry",
		"seed":             "seed",
		"mqtt":             "mqtt",
		"broker":           "broker",
		"clientid":         "clientId",
		"topicprefix":      "topicPrefix",
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = defaultFileConfig
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	Listen           *string `json:"listen,omitempty"`
	DefaultCellCount *int    `json:"defaultCellCount,omitempty"`
	DefaultChemistry *string `json:"defaultChemistry,omitempty"`
	RefreshIntervals []int   `json:"refreshIntervals,omitempty"`
	Seed             *uint64 `json:"seed,omitempty"`
	MQTT             *MQTT   `json:"mqtt,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		Listen:           ptr.To(c.Listen()),
		DefaultCellCount: ptr.To(c.DefaultCellCount()),
		DefaultChemistry: ptr.To(c.DefaultChemistry()),
		RefreshIntervals: c.RefreshIntervals(),
		Seed:             ptr.To(c.Seed()),
	}
	if m := c.MQTT(); m.Enabled() {
		rawConfig.MQTT = &m
	}

	return rawConfig, nil
}

func (f *File) Listen() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.Listen, *defaultFileConfig.Listen)
}

func (f *File) DefaultCellCount() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.DefaultCellCount, *defaultFileConfig.DefaultCellCount)
}

func (f *File) DefaultChemistry() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.DefaultChemistry, *defaultFileConfig.DefaultChemistry)
}

func (f *File) RefreshIntervals() []int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.c.RefreshIntervals) == 0 {
		return append([]int(nil), defaultFileConfig.RefreshIntervals...)
	}
	return append([]int(nil), f.c.RefreshIntervals...)
}

func (f *File) Seed() uint64 {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.Seed, *defaultFileConfig.Seed)
}

func (f *File) MQTT() MQTT {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.MQTT == nil {
		return MQTT{}
	}
	return *f.c.MQTT
}

func (f *File) SetDefaultCellCount(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	if i < 1 || i > 20 {
		panic("default cell count must be between 1 and 20")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.DefaultCellCount = &i
}

func (f *File) SetDefaultChemistry(s string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.DefaultChemistry = &s
}

// envKey turns BMSDASH_MQTT__TOPIC_PREFIX into mqtt.topicPrefix.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	parts := strings.Split(s, "__")
	for i, p := range parts {
		flat := strings.ToLower(strings.ReplaceAll(p, "_", ""))
		if k, ok := envKeys[flat]; ok {
			parts[i] = k
		} else {
			parts[i] = flat
		}
	}
	return strings.Join(parts, ".")
}

// LoadDotEnv loads a .env file into the process environment, if there is one.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to stat %s", path)
	}
	if err := godotenv.Load(path); err != nil {
		return pkgerrors.Wrapf(err, "failed to load %s", path)
	}
	return nil
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := koanf.New(".")

	st, err := os.Stat(f.filepath)
	switch {
	case err == nil && st.Size() > 0:
		if err := k.Load(file.Provider(f.filepath), kjson.Parser()); err != nil {
			return pkgerrors.Wrapf(err, "failed to load config from file %s", f.filepath)
		}
	case err != nil && !os.IsNotExist(err):
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	// A missing or empty file leaves the defaults in place.

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return pkgerrors.Wrapf(err, "failed to load config from environment")
	}

	conf := RawFileConfig{}
	if err := k.UnmarshalWithConf("", &conf, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"listen":           f.Listen(),
		"defaultCellCount": f.DefaultCellCount(),
		"defaultChemistry": f.DefaultChemistry(),
		"refreshIntervals": f.RefreshIntervals(),
		"seed":             f.Seed(),
		"mqttBroker":       f.MQTT().Broker,
	}
}
