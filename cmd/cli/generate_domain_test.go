package main

import (
	"bytes"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainNames(t *testing.T) {
	names, err := newDomainNames("  Partners ")
	require.NoError(t, err)
	assert.Equal(t, domainNames{Package: "partners", Type: "Partners", Local: "partners"}, names)

	for _, bad := range []string{"", "9lives", "my-domain", "../etc", "a b"} {
		_, err := newDomainNames(bad)
		assert.Error(t, err, bad)
	}
}

func TestScaffoldDomain_WritesParseableFiles(t *testing.T) {
	root := t.TempDir()
	names, err := newDomainNames("partners")
	require.NoError(t, err)

	files, err := scaffoldDomain(root, names)
	require.NoError(t, err)
	require.Len(t, files, 4)

	fset := token.NewFileSet()
	for _, path := range files {
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		require.NoError(t, err, path)
		assert.Equal(t, "partners", file.Name.Name, path)
	}

	controller, err := os.ReadFile(filepath.Join(root, "partners", "controller.go"))
	require.NoError(t, err)
	assert.Contains(t, string(controller), "router.DecodeJSON(ctx, &req)")
	assert.Contains(t, string(controller), "router.AppErrorResult(err, &req)")
	assert.Contains(t, string(controller), "limiter ratelimit.RateLimiter")
	assert.NotContains(t, string(controller), "ShouldBindJSON")

	service, err := os.ReadFile(filepath.Join(root, "partners", "service.go"))
	require.NoError(t, err)
	assert.Contains(t, string(service), "req.Normalize()")
}

func TestScaffoldDomain_RefusesExistingDomain(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "partners"), 0o755))
	names, _ := newDomainNames("partners")

	_, err := scaffoldDomain(root, names)
	assert.ErrorIs(t, err, errDomainExists)
}

func TestPrintNextSteps_MountsWithLimiter(t *testing.T) {
	var out bytes.Buffer
	names, _ := newDomainNames("partners")

	printNextSteps(&out, names)

	assert.Contains(t, out.String(), "partners.NewPartnersController(appConfig.DB, appConfig.Logger, formLimiter)")
}
