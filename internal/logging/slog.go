package logging

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Attribute keys shared by every component.
const (
	KeyOperation = "operation"
	KeyNamespace = "namespace"
	KeyPod       = "pod"
	KeyContainer = "container"
	KeyPath      = "path"
	KeyCommand   = "command"
	KeyExitCode  = "exit_code"
	KeyScheme    = "scheme"
	KeyCluster   = "cluster"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyHost      = "host"
	KeyTool      = "tool"
)

const redactedIP = "<redacted-ip>"

var (
	ipv4Pattern = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)
	// Full, compressed and bracketed forms.
	ipv6Pattern = regexp.MustCompile(`\[?([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}\]?`)
)

// WithTool returns a logger carrying the tool name.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }
func Namespace(ns string) slog.Attr { return slog.String(KeyNamespace, ns) }
func Pod(name string) slog.Attr { return slog.String(KeyPod, name) }
func Container(name string) slog.Attr { return slog.String(KeyContainer, name) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func Command(cmd string) slog.Attr { return slog.String(KeyCommand, cmd) }
func ExitCode(code int) slog.Attr { return slog.Int(KeyExitCode, code) }
func Scheme(s string) slog.Attr { return slog.String(KeyScheme, s) }
func Cluster(name string) slog.Attr { return slog.String(KeyCluster, name) }
func Duration(d time.Duration) slog.Attr { return slog.Duration(KeyDuration, d) }
func Status(status string) slog.Attr { return slog.String(KeyStatus, status) }
func Host(host string) slog.Attr { return slog.String(KeyHost, SanitizeHost(host)) }
func Secret(key, secret string) slog.Attr { return slog.String(key, SanitizeSecret(secret)) }

// Err returns the error attribute. A nil error logs as an empty string.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizedErr is Err with IP addresses redacted from the message. Exec and
// API errors often embed the API server endpoint.
func SanitizedErr(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, redactIPs(err.Error()))
}

// SanitizeHost redacts IP addresses in a host or URL and keeps hostnames
// and ports:
//
//	https://10.0.0.12:6443        -> https://<redacted-ip>:6443
//	https://aks-prod.azmk8s.io:443 -> unchanged
//	fd00::1                        -> <redacted-ip>
func SanitizeHost(host string) string {
	if host == "" {
		return "<empty>"
	}
	if !strings.Contains(host, "://") {
		return redactIPs(host)
	}
	u, err := url.Parse(host)
	if err != nil {
		return redactIPs(host)
	}
	if redacted := redactIPs(u.Host); redacted != u.Host {
		u.Host = redacted
		return u.String()
	}
	return host
}

// SanitizeSecret describes a secret by its length only.
func SanitizeSecret(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[secret:%d chars]", len(secret))
}

func redactIPs(s string) string {
	s = ipv4Pattern.ReplaceAllString(s, redactedIP)
	return ipv6Pattern.ReplaceAllString(s, redactedIP)
}
