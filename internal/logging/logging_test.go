package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("production", "debug", &buf)

	logger.WithField("user_id", "u1").Info("profile created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "profile created", entry["msg"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNewWithOutput_BadLevelFallsBackToInfo(t *testing.T) {
	logger := NewWithOutput("development", "loud", &bytes.Buffer{})

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}
