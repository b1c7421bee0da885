// Package utils provides the configuration loading and logger construction
// helpers shared by the quay-audit command layer.
package utils
