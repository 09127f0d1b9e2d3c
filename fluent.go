package opsctl

import "io"

// Builder assembles a Command one piece at a time. Use Shell for opaque lines
// that carry their own pipes and redirects.
type Builder struct {
	cmd Command
}

// Cmd starts a Builder for binary.
func Cmd(binary string) *Builder {
	return &Builder{cmd: Command{Cmd: binary}}
}

// Args appends arguments. The SSH provider shell-quotes each one.
func (b *Builder) Args(args ...string) *Builder {
	b.cmd.Args = append(b.cmd.Args, args...)

	return b
}

// Env exports KEY=value before the command runs.
func (b *Builder) Env(key, value string) *Builder {
	b.cmd.Env = append(b.cmd.Env, key+"="+value)

	return b
}

// Dir changes into dir on the remote host first.
func (b *Builder) Dir(dir string) *Builder {
	b.cmd.Dir = dir

	return b
}

// Output routes stdout and stderr. A nil writer discards that stream.
func (b *Builder) Output(stdout, stderr io.Writer) *Builder {
	b.cmd.Stdout = stdout
	b.cmd.Stderr = stderr

	return b
}

// Build returns a copy of the assembled Command, so a Builder can be reused
// as a template.
func (b *Builder) Build() *Command {
	cmd := b.cmd
	cmd.Args = append([]string(nil), b.cmd.Args...)
	cmd.Env = append([]string(nil), b.cmd.Env...)

	return &cmd
}
