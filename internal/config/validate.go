package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	translator   ut.Translator
)

func structValidator() (*validator.Validate, ut.Translator) {
	validateOnce.Do(func() {
		enLoc := en.New()
		trans, _ := ut.New(enLoc, enLoc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		// Report keys as they are spelled in the config file.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("toml")
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			if tag == "" || tag == "-" {
				return fld.Name
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		validate, translator = v, trans
	})
	return validate, translator
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFields(); err != nil {
		return err
	}
	if !c.Formats.Any() {
		return errors.New("formats: at least one output format must be enabled")
	}
	if c.InputDir == c.OutputDir {
		return errors.New("outdir must differ from indir")
	}
	for _, name := range c.PackageNames() {
		if err := c.validatePackage(name); err != nil {
			return err
		}
	}
	return c.validateExtends()
}

func (c *Config) validateFields() error {
	v, trans := structValidator()
	err := v.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	fe := verrs[0]
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	return fmt.Errorf("%s: %s", key, fe.Translate(trans))
}

func (c *Config) validatePackage(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("packages: %q is not a valid package directory name", name)
	}
	pkg := c.Packages[name]
	if !isLocalPath(pkg.SourceDir) {
		return fmt.Errorf("packages.%s.sourcedir must be a relative path inside the package", name)
	}
	for code, dir := range pkg.Languages {
		if !isLocalPath(dir) || dir == "." {
			return fmt.Errorf("packages.%s.languages.%s must name a subdirectory of the source directory", name, code)
		}
	}
	return nil
}

func (c *Config) validateExtends() error {
	for _, name := range c.PackageNames() {
		for _, parent := range c.Packages[name].Extends {
			if parent == name {
				return fmt.Errorf("packages.%s.extends: a package cannot extend itself", name)
			}
			if _, ok := c.Packages[parent]; !ok {
				return fmt.Errorf("packages.%s.extends: unknown package %q", name, parent)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(c.Packages))
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("packages.%s.extends: cycle %s", path[0], strings.Join(append(path, name), " -> "))
		case done:
			return nil
		}
		state[name] = visiting
		for _, parent := range c.Packages[name].Extends {
			if err := visit(parent, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}
	for _, name := range c.PackageNames() {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

func isLocalPath(p string) bool {
	return p != "" && !filepath.IsAbs(p) && filepath.IsLocal(p)
}
