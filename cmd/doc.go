// Package cmd implements the riakgo command line interface: key-value
// operations against a live node and a load generator, built on cobra
// with viper-backed flag and environment configuration.
package cmd
