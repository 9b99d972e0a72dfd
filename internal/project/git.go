package project

import (
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
)

// OriginRemote returns the URL of the origin remote of the repository at
// dir, or "" when dir is not a repository or has no origin. Userinfo is
// removed from URL-form remotes of any scheme; a URL-form remote that does
// not parse yields "". scp-like remotes (git@host:path) carry no password
// and are returned as is.
func OriginRemote(dir string) string {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return ""
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return ""
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return ""
	}
	return stripUserinfo(urls[0])
}

func stripUserinfo(raw string) string {
	if !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.User = nil
	return u.String()
}
