package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"zkgraph/internal/eventabi"
	"zkgraph/internal/filter"
)

// GraphConfig is the subset of zkgraph.yaml the input generator needs.
type GraphConfig struct {
	SpecVersion string
	Address     common.Address
	Events      []string
	Signatures  []common.Hash
}

type graphDataSource struct {
	Kind    string `mapstructure:"kind"`
	Network string `mapstructure:"network"`
	Source  struct {
		Address string `mapstructure:"address"`
	} `mapstructure:"source"`
	Mapping struct {
		EventHandlers []struct {
			Event   string `mapstructure:"event"`
			Handler string `mapstructure:"handler"`
		} `mapstructure:"eventHandlers"`
	} `mapstructure:"mapping"`
}

// LoadGraph reads a zkgraph yaml manifest. All data sources must watch the
// same contract; their event handlers are merged in file order.
func LoadGraph(path string) (GraphConfig, error) {
	if strings.TrimSpace(path) == "" {
		return GraphConfig{}, fmt.Errorf("graph path is required")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return GraphConfig{}, fmt.Errorf("read graph: %w", err)
	}

	var sources []graphDataSource
	if err := v.UnmarshalKey("dataSources", &sources); err != nil {
		return GraphConfig{}, fmt.Errorf("parse data sources: %w", err)
	}
	if len(sources) == 0 {
		return GraphConfig{}, fmt.Errorf("graph %s has no data sources", path)
	}

	var address string
	var events []string
	for i, src := range sources {
		addr := strings.TrimSpace(src.Source.Address)
		if addr == "" {
			return GraphConfig{}, fmt.Errorf("data source %d has no address", i)
		}
		if address == "" {
			address = addr
		} else if !strings.EqualFold(address, addr) {
			return GraphConfig{}, fmt.Errorf("data sources watch different addresses: %s and %s", address, addr)
		}
		for _, h := range src.Mapping.EventHandlers {
			events = append(events, h.Event)
		}
	}

	cfg, err := NewGraphConfig(address, events)
	if err != nil {
		return GraphConfig{}, err
	}
	cfg.SpecVersion = v.GetString("specVersion")
	return cfg, nil
}

// NewGraphConfig builds a GraphConfig from an address and event list.
func NewGraphConfig(address string, events []string) (GraphConfig, error) {
	addr, err := filter.ParseAddress(address)
	if err != nil {
		return GraphConfig{}, err
	}
	events = cleanStrings(events)
	if len(events) == 0 {
		return GraphConfig{}, fmt.Errorf("no events configured")
	}
	sigs := make([]common.Hash, 0, len(events))
	for _, ev := range events {
		sig, err := EventSignature(ev)
		if err != nil {
			return GraphConfig{}, err
		}
		sigs = append(sigs, sig)
	}
	return GraphConfig{Address: addr, Events: events, Signatures: sigs}, nil
}

// EventSignature accepts either a Solidity event declaration, hashed over its
// canonical form, or a 32-byte topic in hex.
func EventSignature(event string) (common.Hash, error) {
	event = strings.TrimSpace(event)
	if event == "" {
		return common.Hash{}, fmt.Errorf("empty event")
	}
	if eventabi.IsDeclaration(event) {
		ev, err := eventabi.ParseEvent(event)
		if err != nil {
			return common.Hash{}, err
		}
		return ev.ID, nil
	}
	topics, err := filter.ParseTopic0([]string{event})
	if err != nil {
		return common.Hash{}, err
	}
	return topics[0], nil
}

// MatchSpec returns the event filter for this graph.
func (g GraphConfig) MatchSpec() filter.EventMatchSpec {
	return filter.NewEventMatchSpec(g.Address, g.Signatures)
}

// Decoder renders matched events using the declarations of this graph.
func (g GraphConfig) Decoder() (*eventabi.Decoder, error) {
	return eventabi.NewDecoder(g.Events)
}
