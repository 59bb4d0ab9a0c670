package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sabbirzzaman/go-autocar-server/internal/model"
)

// PostgresCarRepo はPostgreSQLを使用した車両リポジトリ。
// 車両ドキュメントはcars.docにJSONBとして保存し、emailは生成列で索引する。
type PostgresCarRepo struct {
	db *sql.DB
}

// NewPostgresCarRepo はPostgresCarRepoを生成する。
func NewPostgresCarRepo(db *sql.DB) *PostgresCarRepo {
	return &PostgresCarRepo{db: db}
}

// List は登録順に車両を取得する。limitが0の場合は件数制限なし。
func (r *PostgresCarRepo) List(ctx context.Context, skip, limit int64) ([]model.Car, error) {
	// LIMIT NULLは件数制限なしとして扱われる
	var limitArg sql.NullInt64
	if limit > 0 {
		limitArg = sql.NullInt64{Int64: limit, Valid: true}
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, doc FROM cars
		 ORDER BY created_at, id
		 OFFSET $1 LIMIT $2`,
		skip, limitArg,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	defer rows.Close()

	return scanCars(rows)
}

// Count は車両の総数を返す。
func (r *PostgresCarRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM cars`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cars: %w", err)
	}
	return count, nil
}

// FindByEmail は所有者メールアドレスが一致する車両を取得する。
func (r *PostgresCarRepo) FindByEmail(ctx context.Context, email string) ([]model.Car, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, doc FROM cars WHERE email = $1 ORDER BY created_at, id`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find cars by email: %w", err)
	}
	defer rows.Close()

	return scanCars(rows)
}

// Insert は車両を登録し、採番したUUIDを返す。
func (r *PostgresCarRepo) Insert(ctx context.Context, car model.Car) (string, error) {
	doc, err := json.Marshal(car.WithoutID())
	if err != nil {
		return "", fmt.Errorf("failed to encode car: %w", err)
	}

	id := uuid.New().String()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO cars (id, doc) VALUES ($1, $2)`,
		id, string(doc),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert car: %w", err)
	}

	return id, nil
}

// FindByID は指定IDの車両を取得する。見つからない場合はnilを返す。
func (r *PostgresCarRepo) FindByID(ctx context.Context, id string) (model.Car, error) {
	carID, err := parseCarUUID(id)
	if err != nil {
		return nil, err
	}

	var doc []byte
	err = r.db.QueryRowContext(ctx,
		`SELECT doc FROM cars WHERE id = $1`,
		carID,
	).Scan(&doc)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find car by ID: %w", err)
	}

	return decodeCar(carID, doc)
}

// DeleteByID は指定IDの車両を削除し、削除件数を返す。
func (r *PostgresCarRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	carID, err := parseCarUUID(id)
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cars WHERE id = $1`,
		carID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete car: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// UpsertQuantity は指定IDの車両のquantityのみを更新する。
// 既存の値と同じ場合は変更件数0として扱う。
// 車両が存在しない場合は {"quantity": quantity} の車両を指定IDで作成する。
func (r *PostgresCarRepo) UpsertQuantity(ctx context.Context, id string, quantity any) (*model.UpdateResult, error) {
	carID, err := parseCarUUID(id)
	if err != nil {
		return nil, err
	}

	value, err := json.Marshal(quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quantity: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result := &model.UpdateResult{Acknowledged: true}

	res, err := tx.ExecContext(ctx,
		`UPDATE cars SET doc = jsonb_set(doc, '{quantity}', $2::jsonb, true)
		 WHERE id = $1 AND doc->'quantity' IS DISTINCT FROM $2::jsonb`,
		carID, string(value),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update car quantity: %w", err)
	}
	modified, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if modified > 0 {
		result.MatchedCount = modified
		result.ModifiedCount = modified
	} else {
		var exists bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM cars WHERE id = $1)`,
			carID,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check car existence: %w", err)
		}

		if exists {
			result.MatchedCount = 1
		} else {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO cars (id, doc) VALUES ($1, jsonb_build_object('quantity', $2::jsonb))
				 ON CONFLICT (id) DO NOTHING`,
				carID, string(value),
			)
			if err != nil {
				return nil, fmt.Errorf("failed to upsert car: %w", err)
			}
			inserted, err := res.RowsAffected()
			if err != nil {
				return nil, fmt.Errorf("failed to get rows affected: %w", err)
			}
			if inserted > 0 {
				result.UpsertedID = &carID
				result.UpsertedCount = inserted
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// Ping はデータベースへの疎通を確認する。
func (r *PostgresCarRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// parseCarUUID は車両IDをUUIDとして正規化する。
func parseCarUUID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	return parsed.String(), nil
}

// scanCars はid, docの行を車両ドキュメントに変換する。
func scanCars(rows *sql.Rows) ([]model.Car, error) {
	cars := []model.Car{}
	for rows.Next() {
		var (
			id  string
			doc []byte
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan car: %w", err)
		}
		car, err := decodeCar(id, doc)
		if err != nil {
			return nil, err
		}
		cars = append(cars, car)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cars: %w", err)
	}
	return cars, nil
}

// decodeCar はJSONBのドキュメントにIDを付与して車両に変換する。
func decodeCar(id string, doc []byte) (model.Car, error) {
	car := model.Car{}
	if err := json.Unmarshal(doc, &car); err != nil {
		return nil, fmt.Errorf("failed to decode car %s: %w", id, err)
	}
	car[model.CarIDField] = id
	return car, nil
}
