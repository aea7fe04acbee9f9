package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported publisher types.
const (
	TypeHTTP      = "http"
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeGCPPubSub = "gcp_pubsub"
)

const (
	httpDefaultMethod         = http.MethodPost
	httpDefaultTimeoutSeconds = 5
)

// PublisherConfig is one entry of the publishers file. Exactly the block
// matching Type is read.
type PublisherConfig struct {
	ID      string               `json:"id" yaml:"id"`
	Type    string               `json:"type" yaml:"type"`
	Enabled *bool                `json:"enabled" yaml:"enabled"`
	HTTP    *HTTPPublisherConfig `json:"http" yaml:"http"`
	SQS     *SQSPublisherConfig  `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig  `json:"sns" yaml:"sns"`
	GCP     *GCPQueueConfig      `json:"gcp_pubsub" yaml:"gcp_pubsub"`
}

// HTTPPublisherConfig posts each event as JSON to URL.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// AWSAuthConfig carries the settings shared by the AWS publishers.
// Static keys are optional; the default credential chain applies otherwise.
type AWSAuthConfig struct {
	Region          string `json:"region" yaml:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SQSPublisherConfig sends each event to an SQS queue.
type SQSPublisherConfig struct {
	QueueURL      string `json:"uri" yaml:"uri"`
	AWSAuthConfig `yaml:",inline"`
}

// SNSPublisherConfig publishes each event to an SNS topic.
type SNSPublisherConfig struct {
	TopicARN      string `json:"topic_arn" yaml:"topic_arn"`
	AWSAuthConfig `yaml:",inline"`
}

// GCPQueueConfig publishes each event to a Pub/Sub topic.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// ConfigFile is a validated publishers file.
type ConfigFile struct {
	publishers []PublisherConfig
	byID       map[string]int
}

// LoadConfigFile reads a YAML (.yaml, .yml) or JSON (.json) publishers file.
// Files without one of those extensions are tried as YAML, then JSON.
func LoadConfigFile(path string) (*ConfigFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var doc struct {
		Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
	}
	if err := decodeConfig(raw, filepath.Ext(path), &doc); err != nil {
		return nil, err
	}
	if len(doc.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	file := &ConfigFile{byID: make(map[string]int, len(doc.Publishers))}
	for i, cfg := range doc.Publishers {
		cfg.normalize()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := file.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		file.byID[cfg.ID] = len(file.publishers)
		file.publishers = append(file.publishers, cfg)
	}
	return file, nil
}

func decodeConfig(raw []byte, ext string, v any) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("decode yaml publishers: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("decode json publishers: %w", err)
		}
	default:
		if yaml.Unmarshal(raw, v) != nil && json.Unmarshal(raw, v) != nil {
			return errors.New("publishers file format not recognized (expected YAML or JSON)")
		}
	}
	return nil
}

// ByID returns the publisher config with the given id.
func (f *ConfigFile) ByID(id string) (PublisherConfig, bool) {
	if f == nil {
		return PublisherConfig{}, false
	}
	i, ok := f.byID[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return f.publishers[i], true
}

// All returns every configured publisher in file order.
func (f *ConfigFile) All() []PublisherConfig {
	if f == nil {
		return nil
	}
	return append([]PublisherConfig(nil), f.publishers...)
}

// Enabled returns the publishers that are not switched off.
func (f *ConfigFile) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range f.All() {
		if cfg.IsEnabled() {
			out = append(out, cfg)
		}
	}
	return out
}

// IsEnabled reports the enabled flag; entries are enabled unless set to false.
func (cfg PublisherConfig) IsEnabled() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

func (cfg *PublisherConfig) normalize() {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.HTTP != nil {
		cfg.HTTP.normalize()
	}
	if cfg.SQS != nil {
		cfg.SQS.QueueURL = strings.TrimSpace(cfg.SQS.QueueURL)
		cfg.SQS.AWSAuthConfig.normalize()
	}
	if cfg.SNS != nil {
		cfg.SNS.TopicARN = strings.TrimSpace(cfg.SNS.TopicARN)
		cfg.SNS.AWSAuthConfig.normalize()
	}
	if cfg.GCP != nil {
		cfg.GCP.ProjectID = strings.TrimSpace(cfg.GCP.ProjectID)
		cfg.GCP.Topic = strings.TrimSpace(cfg.GCP.Topic)
		cfg.GCP.Endpoint = strings.TrimSpace(cfg.GCP.Endpoint)
		cfg.GCP.CredentialsFile = strings.TrimSpace(cfg.GCP.CredentialsFile)
	}
}

func (c *HTTPPublisherConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = httpDefaultMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeoutSeconds
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = nil
	if len(headers) > 0 {
		c.Headers = headers
	}
}

func (a *AWSAuthConfig) normalize() {
	a.Region = strings.TrimSpace(a.Region)
	a.Endpoint = strings.TrimSpace(a.Endpoint)
	a.AccessKeyID = strings.TrimSpace(a.AccessKeyID)
	a.SecretAccessKey = strings.TrimSpace(a.SecretAccessKey)
}

func (a AWSAuthConfig) validate(section string) error {
	if a.Region == "" {
		return fmt.Errorf("%s.region is required", section)
	}
	if (a.AccessKeyID == "") != (a.SecretAccessKey == "") {
		return fmt.Errorf("%s.access_key_id and %s.secret_access_key must be set together", section, section)
	}
	return nil
}

func (cfg PublisherConfig) validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if err := cfg.validateBlock(); err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return nil
}

func (cfg PublisherConfig) validateBlock() error {
	switch cfg.Type {
	case "":
		return errors.New("type is required")
	case TypeHTTP:
		if cfg.HTTP == nil || cfg.HTTP.URL == "" {
			return errors.New("http.url is required")
		}
	case TypeSQS:
		if cfg.SQS == nil || cfg.SQS.QueueURL == "" {
			return errors.New("sqs.uri is required")
		}
		return cfg.SQS.AWSAuthConfig.validate("sqs")
	case TypeSNS:
		if cfg.SNS == nil || cfg.SNS.TopicARN == "" {
			return errors.New("sns.topic_arn is required")
		}
		return cfg.SNS.AWSAuthConfig.validate("sns")
	case TypeGCPPubSub:
		if cfg.GCP == nil || cfg.GCP.ProjectID == "" || cfg.GCP.Topic == "" {
			return errors.New("gcp_pubsub.project_id and gcp_pubsub.topic are required")
		}
	default:
		return fmt.Errorf("unsupported type %q", cfg.Type)
	}
	return nil
}
