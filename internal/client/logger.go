package client

import (
	"fmt"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

var credentialsRe = regexp.MustCompile(`//([^:/@]+):[^@/]+@`)

// errorLogger forwards elastic's error log to logrus. Deprecation warnings
// are demoted to debug.
type errorLogger struct{}

func (errorLogger) Printf(format string, vars ...interface{}) {
	msg := scrubCredentials(fmt.Sprintf(format, vars...))
	if strings.Contains(strings.ToLower(msg), "deprecation") {
		log.WithField("component", "elastic").Debug(msg)
		return
	}
	log.WithField("component", "elastic").Error(msg)
}

// traceLogger forwards elastic's request/response trace to logrus at trace level.
type traceLogger struct{}

func (traceLogger) Printf(format string, vars ...interface{}) {
	if !log.IsLevelEnabled(log.TraceLevel) {
		return
	}
	log.WithField("component", "elastic").Trace(scrubCredentials(fmt.Sprintf(format, vars...)))
}

// scrubCredentials masks the password of any URL embedded in s.
func scrubCredentials(s string) string {
	return credentialsRe.ReplaceAllString(s, "//${1}:***@")
}
