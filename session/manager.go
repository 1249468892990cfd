// Package session implements the Session Manager: the component that
// owns exactly one authenticated SecureChannel and decides when it must
// be torn down and re-established, so application code never has to
// think about handshakes directly.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yubihsm/scp03/authkey"
	"github.com/yubihsm/scp03/message"
	"github.com/yubihsm/scp03/securechannel"
)

// InactivityTimeout is the HSM-enforced idle window after which a session
// is presumed dead and must be re-established before use.
const InactivityTimeout = 30 * time.Second

// ReconnectPolicy governs what Manager.SendCommand does when it finds the
// channel stale or the device reports a session-integrity error.
type ReconnectPolicy int

const (
	// NoReconnect makes every channel closure terminal; SendCommand after
	// close or after an inactivity timeout returns ClosedSession.
	NoReconnect ReconnectPolicy = iota
	// ReconnectOnTimeout re-establishes the channel transparently when
	// InactivityTimeout has elapsed since the last send.
	ReconnectOnTimeout
	// ReconnectOnTimeoutOrDeviceSessionError additionally re-establishes
	// the channel when the device reports InvalidSession or
	// SessionExpired, retrying the caller's command once against the new
	// channel.
	ReconnectOnTimeoutOrDeviceSessionError
)

// Manager owns one authenticated SecureChannel plus the state needed to
// decide when to reconnect: the transport, credentials, and last-activity
// timestamp. It keeps no copy of the command counter; that lives only in
// the channel (see SecureChannel.Counter).
type Manager struct {
	mu sync.Mutex

	transport securechannel.Transport
	authKeyID uint16
	authKey   *authkey.AuthenticationKey
	policy    ReconnectPolicy
	metrics   *Metrics

	channel      *securechannel.SecureChannel
	lastActivity time.Time
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithMetrics attaches a Metrics instance; nil (the default) disables
// metrics entirely.
func WithMetrics(m *Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithReconnectPolicy overrides the default NoReconnect policy.
func WithReconnectPolicy(policy ReconnectPolicy) Option {
	return func(mgr *Manager) { mgr.policy = policy }
}

// Open performs the handshake and returns a ready-to-use Manager. On
// failure no partial state is retained: the returned Manager is nil and
// the typed error from the handshake is returned directly.
func Open(ctx context.Context, transport securechannel.Transport, authKeyID uint16, authKey *authkey.AuthenticationKey, opts ...Option) (*Manager, error) {
	m := &Manager{
		transport: transport,
		authKeyID: authKeyID,
		authKey:   authKey,
		policy:    NoReconnect,
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.handshakeLocked(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) handshakeLocked(ctx context.Context) error {
	channel, err := securechannel.New(m.transport, m.authKeyID, m.authKey)
	if err != nil {
		return err
	}
	if err := channel.Authenticate(ctx); err != nil {
		return err
	}
	m.channel = channel
	m.lastActivity = time.Now()
	m.metrics.handshake()
	return nil
}

// SendCommand sends tag/payload over the managed session, applying the
// reconnect policy first, and returns the decrypted response payload.
func (m *Manager) SendCommand(ctx context.Context, tag message.Tag, payload []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.channel == nil {
		return nil, &securechannel.Error{Kind: securechannel.KindClosedSession, Msg: "manager has no active channel"}
	}

	if time.Since(m.lastActivity) > InactivityTimeout {
		if m.policy == NoReconnect {
			return nil, fmt.Errorf("session: channel idle past inactivity timeout: %w", closedSessionErr())
		}
		if err := m.reconnectLocked(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	resp, err := m.channel.SendEncryptedCommand(ctx, tag, payload)
	m.metrics.observeDuration(time.Since(start).Seconds())

	if err != nil {
		var scErr *securechannel.Error
		if errors.As(err, &scErr) {
			if scErr.Kind == securechannel.KindDeviceError {
				m.metrics.deviceError(scErr.DeviceKind)
			}
			if m.policy == ReconnectOnTimeoutOrDeviceSessionError &&
				scErr.Kind == securechannel.KindDeviceError &&
				(scErr.DeviceKind == message.DeviceErrorInvalidSession ||
					scErr.DeviceKind == message.DeviceErrorSessionExpired) {
				if reErr := m.reconnectLocked(ctx); reErr != nil {
					return nil, reErr
				}
				start = time.Now()
				resp, err = m.channel.SendEncryptedCommand(ctx, tag, payload)
				m.metrics.observeDuration(time.Since(start).Seconds())
			}
		}
	}

	if err == nil {
		m.lastActivity = time.Now()
		m.metrics.commandSent()
	}
	return resp, err
}

func (m *Manager) reconnectLocked(ctx context.Context) error {
	if m.channel != nil {
		_ = m.channel.Close(ctx)
	}
	m.metrics.reconnect()
	return m.handshakeLocked(ctx)
}

// Close sends CloseSession best-effort and always leaves the Manager
// without an active channel.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.channel == nil {
		return nil
	}
	err := m.channel.Close(ctx)
	m.channel = nil
	return err
}

// State reports the underlying channel's lifecycle state, or "closed" if
// no channel is active.
func (m *Manager) State() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.channel == nil {
		return "closed"
	}
	return m.channel.State()
}

func closedSessionErr() error {
	return &securechannel.Error{Kind: securechannel.KindClosedSession, Msg: "inactivity timeout, no reconnect policy configured"}
}
