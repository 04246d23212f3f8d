package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/tikohealth/campaign-backend/config"
	"github.com/tikohealth/campaign-backend/internal/export"
	"github.com/tikohealth/campaign-backend/pkg/storage/mysql"
)

func main() {
	outDir := flag.String("out", "exports", "directory to write export batches to")
	upload := flag.Bool("upload", false, "upload the batch to S3 after exporting")
	bucket := flag.String("bucket", "", "S3 bucket, defaults to EXPORT_BUCKET")
	flag.Parse()

	cfg := appconfig.LoadConfig()
	db := mysql.Connect()
	defer db.Close()

	exporter := export.NewExporter(db)
	batch, err := exporter.Run(*outDir)
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}
	log.Printf("export batch %s written to %s", batch.ID, batch.Directory)
	for table, count := range batch.TableCounts {
		log.Printf("  %s: %d rows", table, count)
	}

	if !*upload {
		return
	}

	target := *bucket
	if target == "" {
		target = cfg.ExportBucket
	}
	if target == "" {
		log.Fatal("no bucket given: set -bucket or EXPORT_BUCKET")
	}

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}
	client := s3.NewFromConfig(awsCfg)

	for _, path := range batch.Files() {
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("failed to open %s: %v", path, err)
		}
		key := fmt.Sprintf("exports/%s/%s", batch.ID, filepath.Base(path))
		_, err = client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: &target,
			Key:    &key,
			Body:   f,
		})
		f.Close()
		if err != nil {
			log.Fatalf("failed to upload %s: %v", key, err)
		}
		log.Printf("uploaded s3://%s/%s", target, key)
	}
}
