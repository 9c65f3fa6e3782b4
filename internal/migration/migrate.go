package migration

import (
	"fmt"

	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"gorm.io/gorm"
)

// Models 협상 엔진 테이블 목록
func Models() []interface{} {
	return []interface{}{
		&domain.Requirement{},
		&domain.Offer{},
		&domain.Notification{},
		&domain.Message{},
		&domain.UserProfile{},
	}
}

// Run executes AutoMigrate for every negotiation table.
// 테이블 없으면 생성, 있으면 누락된 컬럼/인덱스만 추가
func Run(db *gorm.DB) error {
	for _, m := range Models() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto migrate %T: %w", m, err)
		}
	}
	return nil
}
