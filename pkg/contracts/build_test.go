package contracts

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentBuild(t *testing.T) {
	b := CurrentBuild()
	assert.Equal(t, Version, b.Version)
	assert.Equal(t, APIVersion, b.APIVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, b.Platform)
}

func TestBuild_String(t *testing.T) {
	b := Build{Version: "1.4.0", GoVersion: "go1.23.4", Platform: "linux/amd64"}
	assert.Equal(t, ProductName+" 1.4.0 (go1.23.4, linux/amd64)", b.String())

	b.GitCommit = "0123456789abcdef"
	b.Modified = true
	assert.True(t, strings.HasSuffix(b.String(), " commit 0123456789ab-dirty"))
}
