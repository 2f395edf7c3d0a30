package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"comicshelf/internal/service"
)

var (
	scanWorkers    int
	scanDimensions bool
)

// scanResult is one archive's outcome in a directory scan.
type scanResult struct {
	Path      string
	Pages     int
	TotalSize int64
	Err       error
}

var scanCmd = &cobra.Command{
	Use:   "scan <directory>",
	Short: "Scan a directory of comic archives and report page counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, err := newService()
		if err != nil {
			return err
		}
		workers := scanWorkers
		if workers <= 0 {
			workers = cfg.Workers
		}

		files, err := findArchives(args[0])
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("no comic archives found")
			return nil
		}

		jobs := make(chan string, workers)
		results := make(chan scanResult, workers)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for path := range jobs {
					results <- scanOne(svc, path)
				}
			}()
		}

		go func() {
			for _, f := range files {
				jobs <- f
			}
			close(jobs)
		}()

		go func() {
			wg.Wait()
			close(results)
		}()

		var totalPages, failed int
		var totalBytes int64
		collected := make([]scanResult, 0, len(files))
		for res := range results {
			collected = append(collected, res)
		}
		sort.Slice(collected, func(i, j int) bool {
			return collected[i].Path < collected[j].Path
		})

		for _, res := range collected {
			if res.Err != nil {
				failed++
				fmt.Printf("[FAIL] %s: %v\n", filepath.Base(res.Path), res.Err)
				continue
			}
			totalPages += res.Pages
			totalBytes += res.TotalSize
			fmt.Printf("[OK]   %s: %d pages, %s\n", filepath.Base(res.Path), res.Pages, formatBytes(res.TotalSize))
		}
		fmt.Printf("\n%d archives, %d pages, %s total, %d failed\n",
			len(collected), totalPages, formatBytes(totalBytes), failed)
		if failed > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func scanOne(svc *service.Service, path string) scanResult {
	res := scanResult{Path: path}
	pages, err := svc.ListPages(path, scanDimensions)
	if err != nil {
		res.Err = err
		return res
	}
	res.Pages = len(pages)
	for _, p := range pages {
		res.TotalSize += p.FileSize
	}
	return res
}

// findArchives walks dir collecting supported comic archive files.
func findArchives(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".cbz", ".cbr", ".cb7", ".cbc":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func init() {
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0, "Parallel workers (default: from settings)")
	scanCmd.Flags().BoolVarP(&scanDimensions, "dimensions", "d", false, "Decode pages to include dimensions in cache warmup")
	rootCmd.AddCommand(scanCmd)
}
