// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"reflect"
	"strings"

	"github.com/spf13/viper"

	"github.com/cardinalhq/scrubber/erasureapi"
	"github.com/cardinalhq/scrubber/internal/awsclient"
	"github.com/cardinalhq/scrubber/internal/idp"
)

// Config aggregates configuration for the application.
// Each field is owned by its respective package.
type Config struct {
	API      erasureapi.Config `mapstructure:"api"`
	Storage  StorageConfig     `mapstructure:"storage"`
	Identity idp.Config        `mapstructure:"identity"`
}

// StorageConfig describes the object store holding subject assets.
type StorageConfig struct {
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	Role         string `mapstructure:"role"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	InsecureTLS  bool   `mapstructure:"insecure_tls"`
}

// S3Options translates the storage configuration into awsclient options.
func (c StorageConfig) S3Options() []awsclient.S3Option {
	var opts []awsclient.S3Option
	if c.Role != "" {
		opts = append(opts, awsclient.WithRole(c.Role))
	}
	if c.Region != "" {
		opts = append(opts, awsclient.WithRegion(c.Region))
	}
	if c.Endpoint != "" {
		opts = append(opts, awsclient.WithEndpoint(c.Endpoint))
	}
	if c.UsePathStyle {
		opts = append(opts, awsclient.WithPathStyle())
	}
	if c.InsecureTLS {
		opts = append(opts, awsclient.WithInsecureTLS())
	}
	return opts
}

// Load reads configuration from files and environment variables.
// Environment variables use the prefix "SCRUBBER" and the dot character
// in keys is replaced by an underscore. For example, "storage.bucket"
// becomes "SCRUBBER_STORAGE_BUCKET".
func Load() (*Config, error) {
	cfg := &Config{
		API: erasureapi.DefaultConfig(),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("SCRUBBER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
