// Command sud-rawdisk provisions a file-backed virtual LUN, the
// reference client of spec.md §1, adapted from the teacher's
// cmd/ublk-mem entrypoint onto this package's Create/Shutdown API.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ehrlich-b/go-sud"
	"github.com/ehrlich-b/go-sud/examples/rawdisk"
	"github.com/ehrlich-b/go-sud/internal/logging"
	"github.com/ehrlich-b/go-sud/observability"
)

func main() {
	var (
		hwid        = flag.String("hwid", "rawdisk0", "Hardware id of the kernel transport device to open")
		path        = flag.String("path", "rawdisk.img", "Path to the backing file")
		sizeStr     = flag.String("size", "64M", "Size of the backing file (e.g. 64M, 1G)")
		blockLength = flag.Uint("block-length", 512, "Logical block size in bytes")
		threads     = flag.Int("threads", 0, "Dispatcher thread count (0 = CPU affinity default)")
		verbose     = flag.Bool("v", false, "Verbose output")
		metricsAddr = flag.String("metrics-addr", "", "If set, serve Prometheus metrics on this address (e.g. :9090)")
	)
	flag.Parse()

	size, err := parseSize(*sizeStr)
	if err != nil {
		log.Fatalf("invalid size %q: %v", *sizeStr, err)
	}

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	blockCount := uint64(size) / uint64(*blockLength)
	disk, err := rawdisk.Open(*path, blockCount, uint32(*blockLength))
	if err != nil {
		logger.Error("failed to open backing file", "error", err)
		os.Exit(1)
	}
	defer disk.Close()

	params := sud.DefaultParams()
	params.BlockCount = blockCount
	params.BlockLength = uint32(*blockLength)

	unit, err := sud.Create(*hwid, params, disk.Interface())
	if err != nil {
		logger.Error("failed to create storage unit", "error", err)
		os.Exit(1)
	}

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		unit.SetObserver(observability.NewPrometheusObserver(reg))
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			logger.Info("serving metrics", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("metrics server exited", "error", err)
			}
		}()
	}

	var guard sud.Guard[sud.StorageUnit]
	guard.Set(unit)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		guard.Execute(func(u *sud.StorageUnit) { _ = u.Shutdown() })
	}()

	if err := unit.StartDispatcher(*threads); err != nil {
		logger.Error("failed to start dispatcher", "error", err)
		os.Exit(1)
	}
	bus, target, lun := unit.Btl()
	logger.Info("storage unit created", "bus", bus, "target", target, "lun", lun, "path", *path, "size", formatSize(size))

	if err := unit.WaitDispatcher(); err != nil {
		logger.Warn("dispatcher exited with error", "error", err)
	}

	guard.Set(nil)
	if err := unit.Delete(); err != nil {
		logger.Error("failed to delete storage unit", "error", err)
		os.Exit(1)
	}
	logger.Info("storage unit deleted")
}

func parseSize(s string) (int64, error) {
	s = strings.ToUpper(s)
	var multiplier int64 = 1
	var numStr string
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "G")
	default:
		numStr = s
	}
	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := []string{"K", "M", "G", "T"}
	return fmt.Sprintf("%.1f %sB", float64(bytes)/float64(div), units[exp])
}
