// Package sequence runs the fixed remote command lists of both tools.
//
// Diagnostics are independent commands run one at a time; a failing or noisy
// command never stops the ones after it. A deployment is a single compound
// command (statements joined with "&&") followed by one status query.
// Neither mode inspects remote output to decide what to run next.
package sequence
