package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/imishinist/perfreport/internal/models"
)

// parquetRecord is the on-disk layout of models.Record.
type parquetRecord struct {
	Label        string  `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8"`
	TimestampMs  int64   `parquet:"name=timestamp_ms, type=INT64"`
	ElapsedMs    float64 `parquet:"name=elapsed_ms, type=DOUBLE"`
	Success      bool    `parquet:"name=success, type=BOOLEAN"`
	ResponseCode int32   `parquet:"name=response_code, type=INT32"`
}

// WriteParquet stores normalized records at path, creating parent
// directories.
func WriteParquet(path string, records []models.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}

	pw, err := writer.NewParquetWriter(file, new(parquetRecord), 4)
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	for _, r := range records {
		row := parquetRecord{
			Label:        r.Label,
			TimestampMs:  r.TimestampMs,
			ElapsedMs:    r.ElapsedMs,
			Success:      r.Success,
			ResponseCode: int32(r.ResponseCode),
		}
		if err := pw.Write(row); err != nil {
			file.Close()
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		file.Close()
		return fmt.Errorf("failed to stop parquet writer: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close parquet file: %w", err)
	}
	return nil
}

// ReadParquet loads records written by WriteParquet.
func ReadParquet(path string) ([]models.Record, error) {
	file, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	pr, err := reader.NewParquetReader(file, new(parquetRecord), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	rows := make([]parquetRecord, int(pr.GetNumRows()))
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}

	records := make([]models.Record, len(rows))
	for i, row := range rows {
		records[i] = models.Record{
			Label:        row.Label,
			TimestampMs:  row.TimestampMs,
			ElapsedMs:    row.ElapsedMs,
			Success:      row.Success,
			ResponseCode: int(row.ResponseCode),
		}
	}
	return records, nil
}
