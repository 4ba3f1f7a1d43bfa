package db

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"syscall"
	"time"

	"github.com/alessandronigro/corsi-backoffice/internal/application/errs"
	"github.com/alessandronigro/corsi-backoffice/internal/domain/consts"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Registry caches one pgx pool per hostKey:database. Pools are built
// lazily on first Acquire and live for the process lifetime unless a
// fatal transport error reported through Report evicts them; the next
// Acquire for that key rebuilds transparently.
type Registry struct {
	cfg   *HostsConfig
	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
}

func NewRegistry(cfg *HostsConfig) *Registry {
	return &Registry{
		cfg:   cfg,
		pools: make(map[string]*pgxpool.Pool),
	}
}

func poolKey(host consts.HostKey, database string) string {
	return string(host) + ":" + database
}

func (r *Registry) Acquire(ctx context.Context, host consts.HostKey, database string) (*pgxpool.Pool, error) {
	addr, err := r.cfg.Addr(host)
	if err != nil {
		return nil, err
	}
	if database == "" {
		return nil, errs.ConfigurationError{Key: "database"}
	}

	key := poolKey(host, database)
	r.mu.Lock()
	defer r.mu.Unlock()
	if pool, ok := r.pools[key]; ok {
		return pool, nil
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(r.cfg.User, r.cfg.Password),
		Host:   addr,
		Path:   "/" + database,
	}
	poolCfg, err := pgxpool.ParseConfig(dsn.String())
	if err != nil {
		return nil, errs.ConnectivityError{Err: err}
	}
	poolCfg.MaxConns = 8
	poolCfg.MaxConnIdleTime = 15 * time.Minute
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	poolCfg.ConnConfig.DialFunc = dialer.DialContext

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.ConnectivityError{Err: err}
	}
	r.pools[key] = pool
	slog.Info("created lms pool", "host", host, "database", database)
	return pool, nil
}

// Report feeds transport errors observed by callers back into the
// registry. Fatal ones evict the pool so the next Acquire starts clean;
// anything else is only logged.
func (r *Registry) Report(host consts.HostKey, database string, err error) {
	if err == nil {
		return
	}
	if !IsFatal(err) {
		slog.Info("non-fatal lms error", "host", host, "database", database, "err", err)
		return
	}
	key := poolKey(host, database)
	r.mu.Lock()
	pool, ok := r.pools[key]
	if ok {
		delete(r.pools, key)
	}
	r.mu.Unlock()
	if ok {
		go pool.Close()
		slog.Warn("evicted lms pool after fatal error", "host", host, "database", database, "err", err)
	}
}

func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, pool := range r.pools {
		pool.Close()
		delete(r.pools, key)
	}
}

// IsFatal recognizes the transport error class that leaves a pool's
// protocol state unusable.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
