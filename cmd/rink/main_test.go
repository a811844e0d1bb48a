package main

import (
	"testing"
	"time"

	"github.com/akmonengine/rink/audio"
	"github.com/akmonengine/rink/config"
	"github.com/akmonengine/rink/render"
	"github.com/stretchr/testify/assert"
)

func TestAudioParams(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, audio.DefaultParams(), audioParams(cfg))

	cfg.Audio.FullSpeed = 8
	cfg.Audio.ClickMs = 12
	params := audioParams(cfg)
	assert.Equal(t, 8.0, params.FullSpeed)
	assert.Equal(t, 12*time.Millisecond, params.Duration)
}

func TestRenderOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Wireframe = true
	cfg.Render.PhysicsDebug = true
	assert.Equal(t, render.Options{Wireframe: true, PhysicsDebug: true}, renderOptions(cfg))
}
