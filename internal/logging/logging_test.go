package logging

import (
    "bytes"
    "encoding/json"
    "testing"

    "github.com/sirupsen/logrus"
    "github.com/stretchr/testify/require"
)

func TestNew_JSONAndLevel(t *testing.T) {
    var buf bytes.Buffer
    l := NewWithOutput(&buf, "warn", "json")

    l.Info("hidden")
    l.WithField("provider", "coingecko").Warn("shown")

    var line map[string]any
    require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
    require.Equal(t, "shown", line["msg"])
    require.Equal(t, "coingecko", line["provider"])
}

func TestNew_UnknownLevelIsInfo(t *testing.T) {
    l := NewWithOutput(&bytes.Buffer{}, "chatty", "text")

    require.Equal(t, logrus.InfoLevel, l.GetLevel())
    _, ok := l.Formatter.(*logrus.TextFormatter)
    require.True(t, ok)
}
