// Package config loads, validates and persists the deployment
// configuration. The on-disk format is JSON under the user's config
// directory, with the filespace password base64-obfuscated so it never
// sits in the file as plain text.
package config

import "github.com/dmcp718/ll-win-client/internal/resource"

// DefaultMountPoint is the Windows drive the filespace is mounted at
// when the operator does not choose one.
const DefaultMountPoint = "L:"

// Config describes one client deployment.
type Config struct {
	// Provider selects the cloud the deployment targets: "aws" or
	// "azure".
	Provider string `mapstructure:"provider" json:"provider"`

	// Region is the AWS region. Required when Provider is "aws".
	Region string `mapstructure:"region" json:"region,omitempty"`

	// Location and ResourceGroup place the Azure VMs. Required when
	// Provider is "azure".
	Location       string `mapstructure:"location" json:"location,omitempty"`
	ResourceGroup  string `mapstructure:"resource_group" json:"resource_group,omitempty"`
	SubscriptionID string `mapstructure:"subscription_id" json:"subscription_id,omitempty"`

	// FilespaceDomain is the LucidLink filespace in filespace.domain
	// form.
	FilespaceDomain   string `mapstructure:"filespace_domain" json:"filespace_domain"`
	FilespaceUser     string `mapstructure:"filespace_user" json:"filespace_user"`
	FilespacePassword string `mapstructure:"filespace_password" json:"filespace_password"`

	// PasswordEncoded marks that FilespacePassword is base64 encoded on
	// disk. It is consumed by Load and set by Save; it is never true on
	// an in-memory Config.
	PasswordEncoded bool `mapstructure:"_password_encoded" json:"_password_encoded,omitempty"`

	// MountPoint is a Windows drive letter (L:) or path (C:\LucidLink).
	MountPoint string `mapstructure:"mount_point" json:"mount_point"`

	InstanceType   string `mapstructure:"instance_type" json:"instance_type"`
	InstanceCount  int    `mapstructure:"instance_count" json:"instance_count"`
	RootVolumeSize int    `mapstructure:"root_volume_size" json:"root_volume_size,omitempty"`
	VPCCIDR        string `mapstructure:"vpc_cidr" json:"vpc_cidr,omitempty"`
	SSHKeyName     string `mapstructure:"ssh_key_name" json:"ssh_key_name,omitempty"`

	// TerraformDir is the workspace holding the provider's resource
	// definitions.
	TerraformDir string `mapstructure:"terraform_dir" json:"terraform_dir"`
}

// ResourceProvider maps the configured provider name onto the resource
// package's enum.
func (c *Config) ResourceProvider() resource.Provider {
	if c.Provider == "azure" {
		return resource.Azure
	}
	return resource.AWS
}

// TerraformVars builds the variable map the Terraform workspace reads.
// Keys match the variable names the workspaces declare.
func (c *Config) TerraformVars() map[string]any {
	vars := map[string]any{
		"instance_type":      c.InstanceType,
		"instance_count":     c.InstanceCount,
		"filespace_domain":   c.FilespaceDomain,
		"filespace_user":     c.FilespaceUser,
		"filespace_password": c.FilespacePassword,
		"mount_point":        c.MountPoint,
	}
	if c.RootVolumeSize > 0 {
		vars["root_volume_size"] = c.RootVolumeSize
	}
	switch c.ResourceProvider() {
	case resource.Azure:
		vars["location"] = c.Location
		vars["resource_group_name"] = c.ResourceGroup
	default:
		vars["aws_region"] = c.Region
		if c.VPCCIDR != "" {
			vars["vpc_cidr"] = c.VPCCIDR
		}
		if c.SSHKeyName != "" {
			vars["ssh_key_name"] = c.SSHKeyName
		}
	}
	return vars
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = "aws"
	}
	if c.MountPoint == "" {
		c.MountPoint = DefaultMountPoint
	}
	if c.InstanceCount == 0 {
		c.InstanceCount = 1
	}
	if c.InstanceType == "" {
		if c.Provider == "azure" {
			c.InstanceType = "Standard_D4s_v3"
		} else {
			c.InstanceType = "t3.large"
		}
	}
	if c.Region == "" && c.Provider == "aws" {
		c.Region = "us-east-1"
	}
}
