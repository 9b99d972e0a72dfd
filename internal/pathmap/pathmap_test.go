package pathmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoot(t *testing.T) {
	t.Run("cleans paths", func(t *testing.T) {
		root, err := NewRoot("/w/", "/srv/projects/")
		require.NoError(t, err)
		assert.Equal(t, "/w", root.ContainerPath)
		assert.Equal(t, "/srv/projects", root.HostPath)
	})

	t.Run("rejects relative container path", func(t *testing.T) {
		_, err := NewRoot("w", "/srv/projects")
		assert.Error(t, err)
	})

	t.Run("rejects empty paths", func(t *testing.T) {
		_, err := NewRoot("", "/srv")
		assert.Error(t, err)
		_, err = NewRoot("/w", "")
		assert.Error(t, err)
	})
}

func TestRoot_ToHost(t *testing.T) {
	root, err := NewRoot("/w", "/srv/projects")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "direct child", in: "/w/foo", want: "/srv/projects/foo"},
		{name: "nested", in: "/w/foo/docs/concept.md", want: "/srv/projects/foo/docs/concept.md"},
		{name: "root itself", in: "/w", want: "/srv/projects"},
		{name: "unclean input", in: "/w/./foo/", want: "/srv/projects/foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := root.ToHost(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoot_ToHost_OutsideRoot(t *testing.T) {
	root, err := NewRoot("/w", "/srv/projects")
	require.NoError(t, err)

	for _, p := range []string{"/x/foo", "/w/../etc", "/wfoo", "relative"} {
		_, err := root.ToHost(p)
		assert.ErrorIs(t, err, ErrOutsideRoot, p)
	}
}

func TestRoot_WindowsHost(t *testing.T) {
	root, err := NewRoot("/w", `C:\Users\me\projects\`)
	require.NoError(t, err)

	got, err := root.ToHost("/w/foo/docs")
	require.NoError(t, err)
	assert.Equal(t, `C:\Users\me\projects\foo\docs`, got)
}

func TestRoot_Depth(t *testing.T) {
	root, err := NewRoot("/w", "/srv/projects")
	require.NoError(t, err)

	depth, err := root.Depth("/w")
	require.NoError(t, err)
	assert.Equal(t, 0, depth)

	depth, err = root.Depth("/w/a")
	require.NoError(t, err)
	assert.Equal(t, 1, depth)

	depth, err = root.Depth("/w/a/b")
	require.NoError(t, err)
	assert.Equal(t, 2, depth)

	assert.True(t, root.IsChild("/w/a"))
	assert.False(t, root.IsChild("/w/a/b"))
	assert.True(t, root.Contains("/w/a/b"))
	assert.False(t, root.Contains("/other"))
}
