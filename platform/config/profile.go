package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultUnsubscribeReply = "You're unsubscribed. You won't receive any further messages. Thank you for letting us know."
	defaultFallbackReply    = "Thanks for your message! I’ll review it and follow up with a more detailed response shortly."
	defaultGenericReply     = "Thanks for your message! I’ll follow up with you shortly."
	defaultTimezone         = "America/New_York"
)

// AgentProfile describes the persona the assistant writes as and the fixed
// texts it falls back to.
type AgentProfile struct {
	Name             string `yaml:"name"`
	Brokerage        string `yaml:"brokerage"`
	Timezone         string `yaml:"timezone"`
	UnsubscribeReply string `yaml:"unsubscribe_reply"`
	FallbackReply    string `yaml:"fallback_reply"`
	GenericReply     string `yaml:"generic_reply"`
	MaxReplyChars    int    `yaml:"max_reply_chars"`
}

// LoadAgentProfile builds the profile from AGENT_* variables and, when path is
// set, overlays the YAML file on top.
func LoadAgentProfile(path string) (AgentProfile, error) {
	profile := AgentProfile{
		Name:             getEnv("AGENT_NAME", "Your Agent"),
		Brokerage:        getEnv("AGENT_BROKERAGE", ""),
		Timezone:         getEnv("AGENT_TIMEZONE", defaultTimezone),
		UnsubscribeReply: defaultUnsubscribeReply,
		FallbackReply:    defaultFallbackReply,
		GenericReply:     defaultGenericReply,
		MaxReplyChars:    480,
	}

	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return AgentProfile{}, fmt.Errorf("read agent profile: %w", err)
	}

	var overlay AgentProfile
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return AgentProfile{}, fmt.Errorf("parse agent profile: %w", err)
	}

	profile.merge(overlay)
	return profile, nil
}

func (p *AgentProfile) merge(o AgentProfile) {
	if o.Name != "" {
		p.Name = o.Name
	}
	if o.Brokerage != "" {
		p.Brokerage = o.Brokerage
	}
	if o.Timezone != "" {
		p.Timezone = o.Timezone
	}
	if o.UnsubscribeReply != "" {
		p.UnsubscribeReply = o.UnsubscribeReply
	}
	if o.FallbackReply != "" {
		p.FallbackReply = o.FallbackReply
	}
	if o.GenericReply != "" {
		p.GenericReply = o.GenericReply
	}
	if o.MaxReplyChars > 0 {
		p.MaxReplyChars = o.MaxReplyChars
	}
}

// Location resolves the profile timezone, falling back to UTC.
func (p AgentProfile) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
