package redact

// DefaultRules covers credentials that commonly end up pasted into project
// notes. Self-identifying token prefixes need no keywords. Assignment and URL
// rules capture only the secret value.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "aws-access-key-id",
			Pattern:  `(?:A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|AIPA|ANPA|ANVA|ASIA)[A-Z0-9]{16}`,
			Keywords: []string{"aws", "access", "key"},
		},
		{
			ID:       "aws-secret-access-key",
			Pattern:  `(?i)(?:aws_secret_access_key|aws_secret_key|secret_access_key)\s*[:=]\s*['"]?([A-Za-z0-9/+=]{40})`,
			Keywords: []string{"secret"},
		},
		{
			ID:       "generic-api-key",
			Pattern:  `(?i)(?:api[_-]?key|apikey)\s*[:=]\s*['"]?([A-Za-z0-9_\-]{16,64})`,
			Keywords: []string{"api", "key"},
		},
		{
			ID:       "generic-secret",
			Pattern:  `(?i)(?:secret|password|passwd|pwd)\s*[:=]\s*['"]?([^\s'"]{8,})`,
			Keywords: []string{"secret", "password", "passwd", "pwd"},
		},
		{
			ID:      "private-key",
			Pattern: `(?s)-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP |ENCRYPTED )?PRIVATE KEY(?: BLOCK)?-----.*?-----END (?:RSA |DSA |EC |OPENSSH |PGP |ENCRYPTED )?PRIVATE KEY(?: BLOCK)?-----`,
		},
		{
			ID:      "github-token",
			Pattern: `(?:ghp|gho|ghu|ghs|ghr)_[A-Za-z0-9]{36}`,
		},
		{
			ID:      "github-fine-grained",
			Pattern: `github_pat_[A-Za-z0-9_]{22,}`,
		},
		{
			ID:      "gitlab-token",
			Pattern: `glpat-[A-Za-z0-9\-]{20,}`,
		},
		{
			ID:      "slack-token",
			Pattern: `xox[baprs]-[A-Za-z0-9\-]{10,}`,
		},
		{
			ID:      "stripe-key",
			Pattern: `(?:sk|pk|rk)_(?:live|test)_[A-Za-z0-9]{24,}`,
		},
		{
			ID:      "url-credentials",
			Pattern: `[A-Za-z][A-Za-z0-9+.\-]*://([^\s:/@]+:[^\s/@]+)@`,
		},
		{
			ID:      "jwt",
			Pattern: `eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*`,
		},
		{
			ID:       "google-api-key",
			Pattern:  `AIza[A-Za-z0-9_\-]{35}`,
			Keywords: []string{"google", "aiza"},
		},
		{
			ID:       "anthropic-api-key",
			Pattern:  `sk-ant-[A-Za-z0-9_\-]{90,}`,
			Keywords: []string{"sk-ant-"},
		},
		{
			ID:       "openai-api-key",
			Pattern:  `sk-(?:proj-)?[A-Za-z0-9_\-]{48,}`,
			Keywords: []string{"sk-"},
		},
		{
			ID:      "npm-token",
			Pattern: `npm_[A-Za-z0-9]{36}`,
		},
		{
			ID:       "bearer-token",
			Pattern:  `(?i)bearer\s+([A-Za-z0-9_\-\.=]{20,})`,
			Keywords: []string{"bearer"},
		},
		{
			ID:      "env-credential",
			Pattern: `(?i)(?:^|[^A-Za-z0-9_])(?:DB_PASSWORD|DATABASE_PASSWORD|POSTGRES_PASSWORD|MYSQL_PASSWORD|REDIS_PASSWORD|API_SECRET|APP_SECRET|SECRET_KEY|ENCRYPTION_KEY|AUTH_TOKEN|ACCESS_TOKEN|REFRESH_TOKEN)\s*[:=]\s*['"]?([^\s'"]{8,})`,
		},
	}
}
