package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const domainDir = "domain"

var domainNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

var errDomainExists = errors.New("domain already exists")

// domainNames are the identifiers the scaffold templates are rendered with.
type domainNames struct {
	Package string // contactform
	Type    string // Contactform
	Local   string // contactform, for unexported types
}

func newDomainNames(raw string) (domainNames, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if !domainNamePattern.MatchString(name) {
		return domainNames{}, fmt.Errorf("invalid domain name %q: use lowercase letters and digits, starting with a letter", raw)
	}
	return domainNames{
		Package: name,
		Type:    cases.Title(language.English).String(name),
		Local:   name,
	}, nil
}

// GenerateDomain asks for a domain name on stdin and scaffolds it under domain/.
func GenerateDomain() {
	fmt.Println("Enter the name of your domain please: ")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()

	names, err := newDomainNames(scanner.Text())
	if err != nil {
		fmt.Println("unable to create domain:", err)
		return
	}

	files, err := scaffoldDomain(domainDir, names)
	if err != nil {
		fmt.Println("unable to create domain:", err)
		return
	}

	fmt.Println("Domain", names.Package, "created:", strings.Join(files, ", "))
	printNextSteps(os.Stdout, names)
}

// scaffoldDomain renders every template into root/<package> and returns the
// written paths. An existing directory is left untouched.
func scaffoldDomain(root string, names domainNames) ([]string, error) {
	dir := filepath.Join(root, names.Package)
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("%w: %s", errDomainExists, dir)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	for _, name := range []string{"dto.go", "repository.go", "service.go", "controller.go"} {
		src, err := renderScaffold(name, names)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, src, 0o644); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func renderScaffold(name string, names domainNames) ([]byte, error) {
	var buf bytes.Buffer
	if err := scaffoldTemplates.ExecuteTemplate(&buf, name, names); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", name, err)
	}
	return src, nil
}

func printNextSteps(w io.Writer, n domainNames) {
	fmt.Fprintln(w, "  ===> Next steps:")
	fmt.Fprintf(w, "   1) Add models.%s (gorm.Model plus your fields) in internal/models/ and list it in ModelRegistry\n", n.Type)
	fmt.Fprintf(w, "   2) Fill in Create%sRequest, its Normalize method and the mappers in dto.go\n", n.Type)
	fmt.Fprintln(w, "   3) Mount the controller in domain/main.go SetupCoreDomain:")
	fmt.Fprintf(w, "      appConfig.RouterService.MountController(%s.New%sController(appConfig.DB, appConfig.Logger, formLimiter))\n", n.Package, n.Type)
	fmt.Fprintln(w, "   4) Add paired up/down SQL files under migrations/ and run `cli migrate`")
}

var scaffoldTemplates = template.Must(template.New("scaffold").Parse(`
{{define "dto.go"}}package {{.Package}}

import (
	"github.com/carbiooai/carbioo-api/internal/models"
)

// Create{{.Type}}Request is decoded without validation; the service calls
// Normalize and then validates.
type Create{{.Type}}Request struct {
	// Name string ` + "`" + `json:"name" binding:"required,trimmedmin=1,max=200"` + "`" + `
}

// Normalize trims and canonicalises fields before validation.
func (r *Create{{.Type}}Request) Normalize() {
	// r.Name = strings.TrimSpace(r.Name)
}

type {{.Type}}Response struct {
	ID uint ` + "`" + `json:"id"` + "`" + `
}

func To{{.Type}}Model(req *Create{{.Type}}Request) *models.{{.Type}} {
	if req == nil {
		return nil
	}
	return &models.{{.Type}}{}
}

func To{{.Type}}Response(model *models.{{.Type}}) {{.Type}}Response {
	if model == nil {
		return {{.Type}}Response{}
	}
	return {{.Type}}Response{ID: model.ID}
}
{{end}}

{{define "repository.go"}}package {{.Package}}

import (
	"context"
	"errors"

	"github.com/carbiooai/carbioo-api/internal/models"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"gorm.io/gorm"
)

type {{.Type}}Repository interface {
	Create(ctx context.Context, entry *models.{{.Type}}) error
	FindByID(ctx context.Context, id uint) (*models.{{.Type}}, error)
}

type {{.Local}}Repository struct {
	db *gorm.DB
}

func New{{.Type}}Repository(db *gorm.DB) {{.Type}}Repository {
	return &{{.Local}}Repository{db: db}
}

func (r *{{.Local}}Repository) Create(ctx context.Context, entry *models.{{.Type}}) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.NewConflictError("{{.Package}} entry already exists", err)
		}
		return apperrors.NewDatabaseError("unable to create {{.Package}} entry", err)
	}
	return nil
}

func (r *{{.Local}}Repository) FindByID(ctx context.Context, id uint) (*models.{{.Type}}, error) {
	var entry models.{{.Type}}
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("{{.Package}} entry not found", err)
		}
		return nil, apperrors.NewDatabaseError("failed to fetch {{.Package}} entry", err)
	}
	return &entry, nil
}
{{end}}

{{define "service.go"}}package {{.Package}}

import (
	"context"

	"github.com/carbiooai/carbioo-api/internal/log"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"github.com/carbiooai/carbioo-api/pkg/validation"
	"github.com/go-playground/validator/v10"
)

type {{.Type}}Service interface {
	Create(ctx context.Context, req *Create{{.Type}}Request) (*{{.Type}}Response, error)
	FindByID(ctx context.Context, id uint) (*{{.Type}}Response, error)
}

type {{.Local}}Service struct {
	logger     *log.Logger
	repository {{.Type}}Repository
	validate   *validator.Validate
}

func New{{.Type}}Service(logger *log.Logger, repository {{.Type}}Repository) {{.Type}}Service {
	return &{{.Local}}Service{
		logger:     logger,
		repository: repository,
		validate:   validation.New(),
	}
}

func (s *{{.Local}}Service) Create(ctx context.Context, req *Create{{.Type}}Request) (*{{.Type}}Response, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	req.Normalize()
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewInvalidRequestError(apperrors.FirstValidationMessage(err, req), err)
	}

	entry := To{{.Type}}Model(req)
	if err := s.repository.Create(ctx, entry); err != nil {
		logger.Error("Failed to create {{.Package}} entry", "error", err)
		return nil, err
	}

	response := To{{.Type}}Response(entry)
	return &response, nil
}

func (s *{{.Local}}Service) FindByID(ctx context.Context, id uint) (*{{.Type}}Response, error) {
	entry, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := To{{.Type}}Response(entry)
	return &response, nil
}
{{end}}

{{define "controller.go"}}package {{.Package}}

import (
	"net/http"

	"github.com/carbiooai/carbioo-api/config/router"
	"github.com/carbiooai/carbioo-api/internal/log"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"github.com/carbiooai/carbioo-api/pkg/ratelimit"
	"gorm.io/gorm"
)

// New{{.Type}}Controller mounts /v1/{{.Package}}. limiter guards the create
// route; nil falls back to the router-wide limiter.
func New{{.Type}}Controller(db *gorm.DB, logger *log.Logger, limiter ratelimit.RateLimiter) *router.RESTController {
	return router.NewVersionedRESTController(
		"{{.Type}}Controller",
		"v1",
		"/{{.Package}}",
		func(rs *router.RouterService, c *router.RESTController) {
			service := New{{.Type}}Service(logger, New{{.Type}}Repository(db))

			rs.AddPostHandler(c, limiter, "", createHandler(service))
			rs.AddGetHandler(c, nil, "/:id", getByIDHandler(service))
		},
	)
}

func createHandler(service {{.Type}}Service) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		var req Create{{.Type}}Request
		if err := router.DecodeJSON(ctx, &req); err != nil {
			router.GetLogger(ctx).Warn("Failed to decode {{.Package}} request", "error", err)
			return router.BadRequestResult("Invalid request body", apperrors.FormatValidationErrors(err, &req))
		}

		response, err := service.Create(ctx.Request.Context(), &req)
		if err != nil {
			return router.AppErrorResult(err, &req)
		}

		return router.JSONResult(http.StatusCreated, response)
	}
}

func getByIDHandler(service {{.Type}}Service) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		id, errResult := router.ParseIDParam(ctx, "id")
		if errResult != nil {
			return errResult
		}

		response, err := service.FindByID(ctx.Request.Context(), id)
		if err != nil {
			return router.AppErrorResult(err, nil)
		}

		return router.JSONResult(http.StatusOK, response)
	}
}
{{end}}
`))
