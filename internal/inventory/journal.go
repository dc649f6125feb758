package inventory

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Hara602/usbExporter/internal/model"
	"github.com/Hara602/usbExporter/internal/sysutil"
)

// Journal 设备在场台账:每台见过的设备一行,首次/最近出现时间
// 和最近一次的总线位置。只写不读,/metrics 之外留一份可查的底账。
type Journal struct {
	db *sql.DB
}

// Open 初始化数据库表结构
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 联合主键 (vid, pid, serial) 防止重复
	schema := `
	CREATE TABLE IF NOT EXISTS device_journal (
		vid TEXT,
		pid TEXT,
		serial TEXT,
		vendor_name TEXT,
		product_name TEXT,
		bus INTEGER,
		device INTEGER,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (vid, pid, serial)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &Journal{db: db}, nil
}

// RecordSnapshot 把一轮扫描看到的设备逐台落库。老熟人只更新
// last_seen 和总线位置。单条写失败只记日志,不影响指标主流程。
func (j *Journal) RecordSnapshot(devices []model.DeviceRecord) {
	for _, dev := range devices {
		_, err := j.db.Exec(
			`INSERT INTO device_journal (vid, pid, serial, vendor_name, product_name, bus, device)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(vid, pid, serial) DO UPDATE SET
				vendor_name = excluded.vendor_name,
				product_name = excluded.product_name,
				bus = excluded.bus,
				device = excluded.device,
				last_seen = CURRENT_TIMESTAMP`,
			dev.VendorID, dev.ProductID, dev.Serial,
			dev.VendorName, dev.ProductName, dev.Bus, dev.Device,
		)
		if err != nil {
			sysutil.LogSugar.Warnf("journal write failed for %s:%s: %v", dev.VendorID, dev.ProductID, err)
		}
	}
}

func (j *Journal) Close() error {
	return j.db.Close()
}
