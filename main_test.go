package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagValue(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"separate value", []string{"deps", "--config", "a.yaml"}, "a.yaml"},
		{"equals form", []string{"--config=b.yaml", "deps"}, "b.yaml"},
		{"dangling flag", []string{"deps", "--config"}, ""},
		{"absent", []string{"deps", "--dry-run"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flagValue(tt.args, "--config"))
		})
	}
}
