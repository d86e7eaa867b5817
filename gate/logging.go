package gate

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/sirupsen/logrus"

	"carthedge/core"
)

// LoggingGate decorates another Gate, logging every decision via logrus.
// It never logs op_context itself (that may be a chain key or message key);
// instead it logs a truncated hex digest, enough to correlate log lines
// without exposing secret material.
type LoggingGate struct {
	Inner  Gate
	Logger *logrus.Logger
}

// NewLoggingGate wraps inner with a LoggingGate using logger, or a fresh
// default logrus.Logger if logger is nil.
func NewLoggingGate(inner Gate, logger *logrus.Logger) *LoggingGate {
	if logger == nil {
		logger = logrus.New()
	}
	return &LoggingGate{Inner: inner, Logger: logger}
}

func (g *LoggingGate) GateCheck(opName string, opContext []byte) (core.GateDecision, error) {
	dec, err := g.Inner.GateCheck(opName, opContext)
	digest := sha256.Sum256(opContext)
	fields := logrus.Fields{
		"op_name":   opName,
		"ctx_digest": hex.EncodeToString(digest[:8]),
	}

	if err != nil {
		g.Logger.WithFields(fields).WithError(err).Error("gate query failed")
		return dec, err
	}

	if dec.Allowed {
		g.Logger.WithFields(fields).Info("gate allowed")
	} else {
		g.Logger.WithFields(fields).WithField("human", dec.Human).Warn("gate denied")
	}
	return dec, nil
}
