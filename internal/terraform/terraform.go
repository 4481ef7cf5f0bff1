// Package terraform drives the Terraform workspaces that create and tear
// down client VMs. The workspace directory owns the resource definitions;
// this package only supplies variables, runs the lifecycle commands and
// reads back outputs.
package terraform

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/hashicorp/terraform-exec/tfexec"
)

const varsFileName = "terraform.tfvars.json"

// Executor is the slice of tfexec this package depends on, split out so
// tests can substitute a fake.
type Executor interface {
	Init(ctx context.Context, opts ...tfexec.InitOption) error
	Apply(ctx context.Context, opts ...tfexec.ApplyOption) error
	Destroy(ctx context.Context, opts ...tfexec.DestroyOption) error
	Output(ctx context.Context, opts ...tfexec.OutputOption) (map[string]tfexec.OutputMeta, error)
}

// Logger is the minimal logging surface this package needs.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Outputs are the values the workspaces export after an apply.
type Outputs struct {
	InstanceIDs     []string
	PrivateIPs      []string
	PublicIPs       []string
	FilespaceDomain string
	MountPoint      string
}

// Provisioner runs Terraform against a single workspace directory.
type Provisioner struct {
	tf  Executor
	dir string
	log Logger
}

// New locates the terraform binary on PATH and binds it to workDir.
func New(workDir string, log Logger) (*Provisioner, error) {
	execPath, err := exec.LookPath("terraform")
	if err != nil {
		return nil, fmt.Errorf("terraform binary not found on PATH: %w", err)
	}
	tf, err := tfexec.NewTerraform(workDir, execPath)
	if err != nil {
		return nil, fmt.Errorf("binding terraform to %s: %w", workDir, err)
	}
	return &Provisioner{tf: tf, dir: workDir, log: log}, nil
}

// NewFromExecutor builds a Provisioner on a caller-supplied Executor,
// used by tests.
func NewFromExecutor(tf Executor, workDir string, log Logger) *Provisioner {
	return &Provisioner{tf: tf, dir: workDir, log: log}
}

// WriteVars writes the variable file the workspace reads. Terraform picks
// up terraform.tfvars.json automatically, so apply and destroy need no
// -var-file flag. The file holds the filespace password and is written
// owner-only.
func (p *Provisioner) WriteVars(vars map[string]any) error {
	data, err := json.MarshalIndent(vars, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding terraform variables: %w", err)
	}
	path := filepath.Join(p.dir, varsFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	p.log.Printf("wrote terraform variables to %s", path)
	return nil
}

// Init prepares the workspace: provider plugins, modules, backend.
func (p *Provisioner) Init(ctx context.Context) error {
	p.log.Printf("terraform init in %s", p.dir)
	if err := p.tf.Init(ctx, tfexec.Upgrade(false)); err != nil {
		return fmt.Errorf("terraform init: %w", err)
	}
	return nil
}

// Apply creates or updates the deployment.
func (p *Provisioner) Apply(ctx context.Context) error {
	p.log.Printf("terraform apply in %s", p.dir)
	if err := p.tf.Apply(ctx); err != nil {
		return fmt.Errorf("terraform apply: %w", err)
	}
	return nil
}

// Destroy tears down everything the workspace created.
func (p *Provisioner) Destroy(ctx context.Context) error {
	p.log.Printf("terraform destroy in %s", p.dir)
	if err := p.tf.Destroy(ctx); err != nil {
		return fmt.Errorf("terraform destroy: %w", err)
	}
	return nil
}

// Outputs reads the workspace outputs after an apply. Missing outputs are
// not an error: a workspace that exports no public IPs simply yields an
// empty slice.
func (p *Provisioner) Outputs(ctx context.Context) (Outputs, error) {
	raw, err := p.tf.Output(ctx)
	if err != nil {
		return Outputs{}, fmt.Errorf("reading terraform outputs: %w", err)
	}
	return parseOutputs(raw)
}

func parseOutputs(raw map[string]tfexec.OutputMeta) (Outputs, error) {
	var o Outputs
	var err error
	if o.InstanceIDs, err = stringList(raw, "instance_ids"); err != nil {
		return Outputs{}, err
	}
	if o.PrivateIPs, err = stringList(raw, "private_ips"); err != nil {
		return Outputs{}, err
	}
	if o.PublicIPs, err = stringList(raw, "public_ips"); err != nil {
		return Outputs{}, err
	}
	if o.FilespaceDomain, err = stringValue(raw, "filespace_domain"); err != nil {
		return Outputs{}, err
	}
	if o.MountPoint, err = stringValue(raw, "mount_point"); err != nil {
		return Outputs{}, err
	}
	return o, nil
}

func stringList(raw map[string]tfexec.OutputMeta, key string) ([]string, error) {
	meta, ok := raw[key]
	if !ok {
		return nil, nil
	}
	var vals []string
	if err := json.Unmarshal(meta.Value, &vals); err != nil {
		return nil, fmt.Errorf("output %s is not a list of strings: %w", key, err)
	}
	return vals, nil
}

func stringValue(raw map[string]tfexec.OutputMeta, key string) (string, error) {
	meta, ok := raw[key]
	if !ok {
		return "", nil
	}
	var val string
	if err := json.Unmarshal(meta.Value, &val); err != nil {
		return "", fmt.Errorf("output %s is not a string: %w", key, err)
	}
	return val, nil
}
