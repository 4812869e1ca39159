//go:generate mockgen -destination=mock_external_backend_test.go -package=dram_test github.com/zixian-cai/hwgc-soft/memory/dram ExternalBackend

package dram
