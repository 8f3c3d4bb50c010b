// Package config loads deploy targets from a YAML file and the environment.
//
// A config file holds global defaults and one or more deploy targets:
//
//	region: us-east-1
//	deploy:
//	  name: web
//	  buildPath: dist
//	  s3:
//	    bucket: my-site
//
// The deploy key accepts a single target or a list. Glob fields accept a string
// or a list of strings.
package config

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/patterns"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

// Defaults applied while resolving targets.
const (
	DefaultTargetName = "default"
	DefaultBuildPath  = "dist"
	DefaultFile       = "sitesync.yaml"
)

// File is the parsed config document.
type File struct {
	Region   string  `yaml:"region"`
	Endpoint string  `yaml:"endpoint"`
	Deploy   Targets `yaml:"deploy"`
}

// TargetConfig is one entry of the deploy key.
type TargetConfig struct {
	Name        string            `yaml:"name"`
	BuildPath   string            `yaml:"buildPath"`
	IncludeGlob StringList        `yaml:"includeGlob"`
	IgnoreGlob  StringList        `yaml:"ignoreGlob"`
	S3          *S3Config         `yaml:"s3"`
	CloudFront  *CloudFrontConfig `yaml:"cloudfront"`
	Inline      []InlineConfig    `yaml:"inline"`
}

// S3Config describes the bucket side of a target.
type S3Config struct {
	Bucket                  string                `yaml:"bucket"`
	Region                  string                `yaml:"region"`
	Endpoint                string                `yaml:"endpoint"`
	Backend                 string                `yaml:"backend"`
	PathStyle               bool                  `yaml:"pathStyle"`
	Prefix                  string                `yaml:"prefix"`
	Force                   bool                  `yaml:"force"`
	Purge                   bool                  `yaml:"purge"`
	SkipChangesInvalidation bool                  `yaml:"skipChangesInvalidation"`
	InvalidateGlob          StringList            `yaml:"invalidateGlob"`
	ACL                     string                `yaml:"acl"`
	CacheControl            string                `yaml:"cacheControl"`
	CacheControlGlob        []synctypes.CacheRule `yaml:"cacheControlGlob"`
}

// CloudFrontConfig lists the distributions fronting the bucket and any extra
// paths to invalidate on every deployment.
type CloudFrontConfig struct {
	DistributionID  StringList `yaml:"distributionId"`
	InvalidatePaths StringList `yaml:"invalidatePaths"`
}

// InlineConfig is a payload written to the bucket without a local file.
type InlineConfig struct {
	Key         string `yaml:"key"`
	Data        string `yaml:"data"`
	ContentType string `yaml:"contentType"`
}

// Env holds the settings read from environment variables.
type Env struct {
	Region      string `env:"SITESYNC_REGION"`
	AWSRegion   string `env:"AWS_REGION"`
	Endpoint    string `env:"AWS_S3_ENDPOINT"`
	Parallelism int    `env:"SITESYNC_PARALLELISM" envDefault:"1"`
}

// StringList decodes from either a scalar or a sequence of scalars.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
	}
}

// Targets decodes from either a single target mapping or a sequence of them.
// A lone target without a name is called "default".
type Targets []TargetConfig

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Targets) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var single TargetConfig
		if err := node.Decode(&single); err != nil {
			return err
		}
		if single.Name == "" {
			single.Name = DefaultTargetName
		}
		*t = Targets{single}
		return nil
	case yaml.SequenceNode:
		var list []TargetConfig
		if err := node.Decode(&list); err != nil {
			return err
		}
		*t = list
		return nil
	default:
		return fmt.Errorf("line %d: deploy must be a target or a list of targets", node.Line)
	}
}

// Parse decodes a config document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("invalid config: %v", err))
	}
	return &f, nil
}

// Load reads and parses the config file at path.
func Load(fsys fs.Filesystem, path string) (*File, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("failed to read config %s: %v", path, err))
	}
	return Parse(data)
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, errors.NewConfigurationError(fmt.Sprintf("invalid environment: %v", err))
	}
	if e.Parallelism < 1 {
		return Env{}, errors.NewConfigurationError(fmt.Sprintf("SITESYNC_PARALLELISM must be at least 1, got %d", e.Parallelism))
	}
	return e, nil
}

func (e Env) region() string {
	if e.Region != "" {
		return e.Region
	}
	return e.AWSRegion
}

// Resolve validates the file and turns its deploy entries into targets.
// Relative build paths are joined to baseDir. A non-empty name selects a
// single target.
func (f *File) Resolve(baseDir string, e Env, name string) ([]synctypes.Target, error) {
	if len(f.Deploy) == 0 {
		return nil, errors.NewConfigurationError("no deploy targets configured")
	}

	seen := make(map[string]struct{}, len(f.Deploy))
	var targets []synctypes.Target
	for i := range f.Deploy {
		tc := &f.Deploy[i]
		if tc.Name == "" {
			return nil, errors.NewConfigurationError(fmt.Sprintf("deploy target %d has no name", i))
		}
		if _, dup := seen[tc.Name]; dup {
			return nil, errors.NewConfigurationError(fmt.Sprintf("duplicate deploy target %q", tc.Name))
		}
		seen[tc.Name] = struct{}{}

		if name != "" && tc.Name != name {
			continue
		}

		target, err := f.resolveTarget(tc, baseDir, e)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}

	if len(targets) == 0 {
		names := make([]string, 0, len(seen))
		for _, tc := range f.Deploy {
			names = append(names, tc.Name)
		}
		return nil, errors.NewConfigurationError(fmt.Sprintf("deploy target %q not found, have %v", name, names))
	}
	return targets, nil
}

func (f *File) resolveTarget(tc *TargetConfig, baseDir string, e Env) (synctypes.Target, error) {
	fail := func(format string, args ...any) (synctypes.Target, error) {
		return synctypes.Target{}, errors.NewConfigurationError(fmt.Sprintf("target %q: ", tc.Name) + fmt.Sprintf(format, args...))
	}

	s3 := tc.S3
	if s3 == nil || s3.Bucket == "" {
		return fail("s3 bucket is not set")
	}

	target := synctypes.Target{
		Name:                    tc.Name,
		LocalPath:               localPath(baseDir, tc.BuildPath),
		IncludeGlob:             tc.IncludeGlob,
		IgnoreGlob:              tc.IgnoreGlob,
		Bucket:                  s3.Bucket,
		Region:                  firstNonEmpty(s3.Region, f.Region, e.region()),
		Endpoint:                firstNonEmpty(s3.Endpoint, f.Endpoint, e.Endpoint),
		Backend:                 firstNonEmpty(s3.Backend, synctypes.BackendS3),
		ForcePathStyle:          s3.PathStyle,
		Prefix:                  s3.Prefix,
		Force:                   s3.Force,
		Purge:                   s3.Purge,
		SkipChangesInvalidation: s3.SkipChangesInvalidation,
		ACL:                     s3.ACL,
		CacheControl:            s3.CacheControl,
		CacheControlGlob:        s3.CacheControlGlob,
		InvalidateGlob:          s3.InvalidateGlob,
	}
	if cf := tc.CloudFront; cf != nil {
		target.DistributionIDs = cf.DistributionID
		target.InvalidatePaths = cf.InvalidatePaths
	}
	for _, in := range tc.Inline {
		target.Inline = append(target.Inline, synctypes.InlineFile{
			Key:         in.Key,
			Data:        []byte(in.Data),
			ContentType: in.ContentType,
		})
	}

	if target.Region == "" {
		return fail("region is not set")
	}
	if !slices.Contains([]string{synctypes.BackendS3, synctypes.BackendMinio}, target.Backend) {
		return fail("unknown backend %q", target.Backend)
	}

	checks := []error{
		validation.ValidateBucketName(target.Bucket),
		validation.ValidatePrefix(target.Prefix),
		validation.ValidateACL(target.ACL),
		patterns.Validate(target.IncludeGlob),
		patterns.Validate(target.IgnoreGlob),
		patterns.Validate(target.InvalidateGlob),
	}
	for _, rule := range target.CacheControlGlob {
		checks = append(checks, patterns.Validate([]string{rule.Glob}))
	}
	for _, in := range target.Inline {
		checks = append(checks,
			validation.ValidateObjectKey(in.Key),
			validation.ValidateContentType(in.ContentType),
		)
	}
	for _, err := range checks {
		if err != nil {
			return fail("%v", err)
		}
	}

	return target, nil
}

func localPath(baseDir, buildPath string) string {
	if buildPath == "" {
		buildPath = DefaultBuildPath
	}
	if filepath.IsAbs(buildPath) {
		return filepath.Clean(buildPath)
	}
	return filepath.Join(baseDir, buildPath)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
