package config

import (
	"fmt"
	"regexp"
)

var (
	// filespaceDomainRe accepts the filespace.domain form LucidLink
	// uses, e.g. production.dpfs.
	filespaceDomainRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]*\.[a-zA-Z0-9][a-zA-Z0-9\-_.]*$`)

	// mountPointRe accepts a Windows drive letter (L:) or an absolute
	// Windows path (C:\LucidLink).
	mountPointRe = regexp.MustCompile(`^[A-Za-z]:(\\.*)?$`)

	// awsInstanceTypeRe is a loose shape check, e.g. t3.large,
	// g4dn.xlarge.
	awsInstanceTypeRe = regexp.MustCompile(`^[a-z]+[0-9]+[a-z]*\.[a-z0-9]+$`)

	cidrRe = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}/\d{1,2}$`)
)

// Validate checks the configuration for common errors and returns a
// detailed error if validation fails.
func (c *Config) Validate() error {
	if c.Provider != "aws" && c.Provider != "azure" {
		return fmt.Errorf("invalid provider %q: must be \"aws\" or \"azure\"", c.Provider)
	}

	if c.FilespaceDomain == "" {
		return fmt.Errorf("filespace_domain is required")
	}
	if !filespaceDomainRe.MatchString(c.FilespaceDomain) {
		return fmt.Errorf("invalid filespace domain %q: expected filespace.domain form", c.FilespaceDomain)
	}
	if c.FilespaceUser == "" {
		return fmt.Errorf("filespace_user is required")
	}
	if c.FilespacePassword == "" {
		return fmt.Errorf("filespace_password is required")
	}

	if !mountPointRe.MatchString(c.MountPoint) {
		return fmt.Errorf("mount point %q must be a Windows drive letter (e.g. L:) or path (e.g. C:\\LucidLink)", c.MountPoint)
	}

	if c.InstanceCount < 1 || c.InstanceCount > 10 {
		return fmt.Errorf("instance count must be between 1 and 10: %d", c.InstanceCount)
	}

	if c.RootVolumeSize != 0 && (c.RootVolumeSize < 30 || c.RootVolumeSize > 1000) {
		return fmt.Errorf("root volume size must be between 30 and 1000 GB: %d", c.RootVolumeSize)
	}

	if c.TerraformDir == "" {
		return fmt.Errorf("terraform_dir is required")
	}

	switch c.Provider {
	case "aws":
		return c.validateAWS()
	default:
		return c.validateAzure()
	}
}

func (c *Config) validateAWS() error {
	if c.Region == "" {
		return fmt.Errorf("region is required for aws deployments")
	}
	if !awsInstanceTypeRe.MatchString(c.InstanceType) {
		return fmt.Errorf("invalid instance type format: %q", c.InstanceType)
	}
	if c.VPCCIDR != "" && !cidrRe.MatchString(c.VPCCIDR) {
		return fmt.Errorf("invalid vpc cidr format: %q", c.VPCCIDR)
	}
	return nil
}

func (c *Config) validateAzure() error {
	if c.Location == "" {
		return fmt.Errorf("location is required for azure deployments")
	}
	if c.ResourceGroup == "" {
		return fmt.Errorf("resource_group is required for azure deployments")
	}
	if c.SubscriptionID == "" {
		return fmt.Errorf("subscription_id is required for azure deployments")
	}
	return nil
}
