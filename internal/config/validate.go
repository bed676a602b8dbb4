package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"

	"rfamscan/internal/search"
)

var (
	validEnvVar = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	validate *validator.Validate
)

func init() {
	validate = validator.New()
	// Report fields by their YAML key so messages match the config file
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidationError collects multiple validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s",
		strings.Join(e.Errors, "\n  - "))
}

// Add appends a validation error message
func (e *ValidationError) Add(msg string) {
	e.Errors = append(e.Errors, msg)
}

// HasErrors returns true if there are any validation errors
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks the config for semantic errors
func (c *Config) Validate() error {
	errs := &ValidationError{}

	// Struct tags: enums, ranges, required values
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("failed to validate config: %w", err)
		}
		for _, fe := range fieldErrs {
			errs.Add(fieldMessage(fe))
		}
	}

	if c.TmpPath != "" && !filepath.IsAbs(c.TmpPath) {
		errs.Add("tmp_path must be an absolute path")
	}

	if c.ModelSuffix != "" && !strings.HasPrefix(c.ModelSuffix, ".") {
		errs.Add("model_suffix must start with '.'")
	}

	// Tool paths are substituted into a shell command line
	for key, tool := range map[string]string{
		"search_tools.cmsearch": c.SearchTools.CMSearch,
		"search_tools.cmscan":   c.SearchTools.CMScan,
	} {
		if strings.ContainsAny(tool, " \t\n") {
			errs.Add(fmt.Sprintf("%s must not contain whitespace", key))
		}
	}

	if c.Cluster.JobIDVar != "" && !validEnvVar.MatchString(c.Cluster.JobIDVar) {
		errs.Add("cluster.job_id_var must be a valid environment variable name")
	}

	if c.Cluster.ResourceGroup != "" && !strings.HasPrefix(c.Cluster.ResourceGroup, "/") {
		errs.Add("cluster.resource_group must start with '/'")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// fieldMessage renders a validator failure in the same voice as the
// hand-written checks
func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field,
			strings.Join(strings.Fields(fe.Param()), ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}

// Tools returns the method to executable table
func (c *Config) Tools() search.Tools {
	return search.Tools{
		search.MethodCMSearch: c.SearchTools.CMSearch,
		search.MethodCMScan:   c.SearchTools.CMScan,
	}
}

// Warnings returns non-fatal issues (call after Validate)
func (c *Config) Warnings() []string {
	var warnings []string

	// Cluster tool paths refer to the execution hosts, not this machine
	if c.ExecutionMode == ModeLocal {
		// Unknown methods are reported by Validate
		if tool, err := c.Tools().Resolve(c.Method); err == nil {
			if filepath.IsAbs(tool) {
				if _, err := os.Stat(tool); err != nil {
					warnings = append(warnings, fmt.Sprintf("search tool %s does not exist", tool))
				}
			} else if _, err := exec.LookPath(tool); err != nil {
				warnings = append(warnings, fmt.Sprintf("search tool %q not found in PATH", tool))
			}
		}

		if n := runtime.NumCPU(); c.CPU > n {
			warnings = append(warnings, fmt.Sprintf("cpu (%d) exceeds available CPUs (%d)", c.CPU, n))
		}
	}

	return warnings
}
