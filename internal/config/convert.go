package config

import (
	"fmt"
	"strings"

	"github.com/danmuck/fishbowl/internal/protocol/codec"
	"github.com/danmuck/fishbowl/internal/protocol/transport"
	"github.com/danmuck/fishbowl/internal/session"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"
)

// charset maps an encoding name onto a single-byte charmap. UTF-8 maps to
// nil, which the tree codec passes through unchanged.
func charset(name string) (*charmap.Charmap, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "utf-8", "utf8":
		return nil, nil
	default:
		return nil, fmt.Errorf("connect config unknown encoding: %s", name)
	}
}

func (c Config) TransportConfig(logger zerolog.Logger) transport.Config {
	conn := c.Connect
	cfg := transport.DefaultConfig()
	cfg.Host = conn.Host
	cfg.Port = conn.Port
	cfg.Timeout = conn.Timeout.Duration
	cfg.LoginTimeout = conn.LoginTimeout.Duration
	cfg.Retries = conn.Retries
	cfg.Backoff = transport.BackoffConfig{
		InitialDelay: conn.RetryDelay.Duration,
		Multiplier:   conn.RetryMultiplier,
		MaxDelay:     conn.RetryMaxDelay.Duration,
		Jitter:       conn.RetryJitter,
	}
	cfg.ChunkSize = conn.ChunkSize
	cfg.MaxPayloadBytes = uint32(conn.MaxPayloadBytes)
	cfg.Logger = logger
	return cfg.WithDefaults()
}

// Codec builds the configured wire codec.
func (c Config) Codec() (codec.Codec, error) {
	cd, err := codec.ForFormat(c.Connect.Format)
	if err != nil {
		return nil, err
	}
	if tree, ok := cd.(*codec.TreeCodec); ok {
		cs, err := charset(c.Connect.Encoding)
		if err != nil {
			return nil, err
		}
		tree.Charset = cs
	}
	return cd, nil
}

func (c Config) SessionConfig(logger zerolog.Logger) (session.Config, error) {
	cd, err := c.Codec()
	if err != nil {
		return session.Config{}, err
	}
	return session.Config{
		Transport: c.TransportConfig(logger),
		Codec:     cd,
		TaskName:  c.Connect.TaskName,
		Logger:    logger,
	}, nil
}
