package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyPrefixSession is the prefix for persisted provider sessions
	KeyPrefixSession = "marks:session:"
	// KeyPrefixVerifier is the prefix for pending PKCE verifiers
	KeyPrefixVerifier = "marks:pkce:"
	// ChannelPrefixAuth is the prefix of the pub/sub channel carrying auth events
	ChannelPrefixAuth = "marks:auth:"
)

// SessionKey returns the Redis key holding the session of a browser
func SessionKey(sid string) string {
	return KeyPrefixSession + sid
}

// VerifierKey returns the Redis key holding the PKCE verifier of a browser
func VerifierKey(sid string) string {
	return KeyPrefixVerifier + sid
}

// AuthChannel returns the pub/sub channel for auth events of a browser
func AuthChannel(sid string) string {
	return ChannelPrefixAuth + sid
}

// AuthChannelPattern matches every auth event channel
func AuthChannelPattern() string {
	return ChannelPrefixAuth + "*"
}

// ExtractSID extracts the browser session id from an auth channel name
func ExtractSID(channel string) (string, error) {
	sid, ok := strings.CutPrefix(channel, ChannelPrefixAuth)
	if !ok || sid == "" {
		return "", fmt.Errorf("invalid auth channel: %s", channel)
	}
	return sid, nil
}
