// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package store

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Scrubbing removes credentials, tokens, and local filesystem paths from
// values destined for persistent output. It is applied at the event-log
// write boundary as a blanket policy, never opt-in.

const redactedValue = "REDACTED"

var (
	urlCredsRe    = regexp.MustCompile(`(https?://)([^/:@\s]+):([^/@\s]+)@`)
	sensitiveQSRe = regexp.MustCompile(`(?i)([?&](?:api_key|apikey|token|auth|key|secret|password)=)[^&\s]+`)
	localPathRe   = regexp.MustCompile(`/(?:Users|home|root|etc|var/log)/[a-zA-Z0-9._/-]+`)
)

var sensitiveKeys = map[string]bool{
	"token":         true,
	"access_token":  true,
	"refresh_token": true,
	"api_key":       true,
	"apikey":        true,
	"auth":          true,
	"authorization": true,
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"credential":    true,
	"credentials":   true,
	"private_key":   true,
}

// ScrubString redacts URL-embedded credentials, sensitive query-string
// parameters, and absolute home/system paths from s.
func ScrubString(s string) string {
	if s == "" {
		return s
	}
	s = urlCredsRe.ReplaceAllString(s, "${1}"+redactedValue+":"+redactedValue+"@")
	s = sensitiveQSRe.ReplaceAllString(s, "${1}"+redactedValue)
	s = localPathRe.ReplaceAllString(s, "[REDACTED_PATH]")
	return s
}

// ScrubValue recursively scrubs a decoded JSON value. Values under sensitive
// key names are replaced wholesale; every remaining string is passed through
// ScrubString.
func ScrubValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			if sensitiveKeys[strings.ToLower(k)] {
				out[k] = redactedValue
				continue
			}
			out[k] = ScrubValue(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = ScrubValue(child)
		}
		return out
	case string:
		return ScrubString(t)
	default:
		return v
	}
}

// ScrubJSON scrubs a serialized JSON document. Input that does not parse as
// JSON is scrubbed as plain text rather than rejected, so a malformed
// payload can never smuggle a secret past the boundary.
func ScrubJSON(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return ScrubString(raw)
	}
	out, err := json.Marshal(ScrubValue(v))
	if err != nil {
		return ScrubString(raw)
	}
	return string(out)
}
