package db

import (
	"strings"

	"github.com/alessandronigro/corsi-backoffice/internal/application/errs"
	"github.com/alessandronigro/corsi-backoffice/internal/domain/consts"
	"github.com/alessandronigro/corsi-backoffice/pkg/env"
)

// Target is the authoritative destination for one convenzione: the
// logical connection key plus the database holding its courses.
type Target struct {
	ConnKey  consts.HostKey
	Database string
}

type HostsConfig struct {
	addrs    map[consts.HostKey]string
	User     string
	Password string
}

func NewHostsConfig() *HostsConfig {
	return &HostsConfig{
		addrs: map[consts.HostKey]string{
			consts.HostIFAD:   env.GetEnv("LMS_HOST_IFAD", "ifad.lms.internal:5432"),
			consts.HostEFAD:   env.GetEnv("LMS_HOST_EFAD", "efad.lms.internal:5432"),
			consts.HostSITE:   env.GetEnv("LMS_HOST_SITE", "site.lms.internal:5432"),
			consts.HostNOVA:   env.GetEnv("LMS_HOST_NOVA", "nova.lms.internal:5432"),
			consts.HostSIMPLY: env.GetEnv("LMS_HOST_SIMPLY", "simply.lms.internal:5432"),
		},
		User:     env.GetEnv("LMS_USER", "lms"),
		Password: env.GetEnv("LMS_PASSWORD", "lms"),
	}
}

func (c *HostsConfig) Addr(key consts.HostKey) (string, error) {
	addr, ok := c.addrs[key]
	if !ok || addr == "" {
		return "", errs.ConfigurationError{Key: string(key)}
	}
	return addr, nil
}

// defaultDatabases is the catalog database each cluster serves when the
// caller does not name one explicitly.
var defaultDatabases = map[consts.HostKey]string{
	consts.HostIFAD:   "formazione_ifad",
	consts.HostEFAD:   "formazione_efad",
	consts.HostSITE:   "formazione_site",
	consts.HostNOVA:   "formazione_nova",
	consts.HostSIMPLY: "formazione_simply",
}

// ResolvePlatform maps a convenzione's declared platform and host
// identifiers, which arrive abbreviated and inconsistently cased, onto
// the cluster actually holding its courses. Pure string matching, no I/O.
// An explicit database overrides the cluster default.
func ResolvePlatform(platform, host, database string) (Target, error) {
	candidate := strings.ToUpper(strings.TrimSpace(host))
	if candidate == "" {
		candidate = strings.ToUpper(strings.TrimSpace(platform))
	}

	var key consts.HostKey
	switch {
	case strings.HasPrefix(candidate, "IFAD"):
		key = consts.HostIFAD
	case strings.HasPrefix(candidate, "EFAD"), strings.HasPrefix(candidate, "E-FAD"):
		key = consts.HostEFAD
	case strings.HasPrefix(candidate, "SITE"):
		key = consts.HostSITE
	case strings.HasPrefix(candidate, "NOVA"):
		key = consts.HostNOVA
	case strings.HasPrefix(candidate, "SIMPLY"), strings.HasPrefix(candidate, "SMP"):
		key = consts.HostSIMPLY
	default:
		return Target{}, errs.ResolutionError{Platform: candidate}
	}

	db := strings.TrimSpace(database)
	if db == "" {
		db = defaultDatabases[key]
	}
	return Target{ConnKey: key, Database: db}, nil
}
