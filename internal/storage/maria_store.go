package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/logging"
	"github.com/annel0/worldsim/internal/vec"
	_ "github.com/go-sql-driver/mysql"
)

// MariaStore реализует Store для MariaDB/MySQL. Единица работы — транзакция sql.Tx.
// Расы монстров берутся из отдельного репозитория (каталог или MongoDB).
type MariaStore struct {
	db       *sql.DB
	monsters MonsterTypeRepository
}

// NewMariaStore открывает подключение и создаёт таблицу characters, если её нет.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname?parseTime=true)
//	monsters - репозиторий рас монстров
func NewMariaStore(dsn string, monsters MonsterTypeRepository) (*MariaStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	s := NewMariaStoreWithDB(db, monsters)
	if err := s.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}

	logging.GetStorageLogger().Info("🐬 MariaDB подключена")
	return s, nil
}

// NewMariaStoreWithDB использует уже открытое подключение
func NewMariaStoreWithDB(db *sql.DB, monsters MonsterTypeRepository) *MariaStore {
	if monsters == nil {
		monsters = noMonsterTypes{}
	}
	return &MariaStore{db: db, monsters: monsters}
}

// createTable создает таблицу characters, если она не существует.
func (s *MariaStore) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS characters (
			id            VARCHAR(64)  PRIMARY KEY,
			account_id    VARCHAR(64)  NOT NULL,
			name          VARCHAR(64)  NOT NULL,
			name_key      VARCHAR(64)  NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			profession    TINYINT      NOT NULL DEFAULT 0,
			premium       BOOLEAN      NOT NULL DEFAULT FALSE,
			outfit        TEXT         NOT NULL,
			x             INT          NOT NULL,
			y             INT          NOT NULL,
			z             TINYINT      NOT NULL,
			health        INT          NOT NULL,
			mana          INT          NOT NULL,
			capacity      INT          NOT NULL,
			skills        TEXT         NOT NULL,
			fight_mode    TINYINT      NOT NULL DEFAULT 2,
			chase_mode    TINYINT      NOT NULL DEFAULT 0,
			last_login    TIMESTAMP    NULL,
			UNIQUE KEY idx_name_key (name_key)
		) ENGINE=InnoDB
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка создания таблицы characters: %w", err)
	}
	return nil
}

// Begin открывает транзакцию
func (s *MariaStore) Begin(ctx context.Context) (UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия транзакции: %w", err)
	}
	return &sqlUnitOfWork{tx: tx, monsters: s.monsters}, nil
}

// Close закрывает подключение
func (s *MariaStore) Close() error {
	return s.db.Close()
}

type sqlUnitOfWork struct {
	tx       *sql.Tx
	monsters MonsterTypeRepository
}

func (u *sqlUnitOfWork) Characters() CharacterRepository     { return &sqlCharacters{tx: u.tx} }
func (u *sqlUnitOfWork) MonsterTypes() MonsterTypeRepository { return u.monsters }

func (u *sqlUnitOfWork) Complete() error {
	if err := u.tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return ErrUnitOfWorkClosed
		}
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

func (u *sqlUnitOfWork) Rollback() error {
	if err := u.tx.Rollback(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return ErrUnitOfWorkClosed
		}
		return fmt.Errorf("ошибка отката транзакции: %w", err)
	}
	return nil
}

// sqlCharacters — репозиторий персонажей внутри транзакции
type sqlCharacters struct {
	tx *sql.Tx
}

func (r *sqlCharacters) FindCharacterByName(ctx context.Context, name string) (*CharacterEntity, error) {
	query := `
		SELECT id, account_id, name, password_hash, profession, premium, outfit,
		       x, y, z, health, mana, capacity, skills, fight_mode, chase_mode, last_login
		FROM characters WHERE name_key = ?
	`

	var (
		ch        CharacterEntity
		outfit    string
		skills    string
		x, y      int
		z         int8
		lastLogin sql.NullTime
	)
	err := r.tx.QueryRowContext(ctx, query, NormalizeName(name)).Scan(
		&ch.ID, &ch.AccountID, &ch.Name, &ch.PasswordHash, &ch.Profession, &ch.Premium, &outfit,
		&x, &y, &z, &ch.Health, &ch.Mana, &ch.Capacity, &skills, &ch.FightMode, &ch.ChaseMode, &lastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCharacterNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки персонажа %s: %w", name, err)
	}

	ch.Location = vec.Location{X: x, Y: y, Z: z}
	if lastLogin.Valid {
		ch.LastLogin = lastLogin.Time
	}
	if err := json.Unmarshal([]byte(outfit), &ch.Outfit); err != nil {
		return nil, fmt.Errorf("повреждён outfit персонажа %s: %w", name, err)
	}
	if ch.Skills, err = decodeSkills(skills); err != nil {
		return nil, fmt.Errorf("повреждены навыки персонажа %s: %w", name, err)
	}
	return &ch, nil
}

func (r *sqlCharacters) SaveCharacter(ctx context.Context, ch *CharacterEntity) error {
	if ch == nil || ch.ID == "" {
		return fmt.Errorf("недействительный персонаж")
	}

	outfit, err := json.Marshal(ch.Outfit)
	if err != nil {
		return fmt.Errorf("ошибка сериализации outfit: %w", err)
	}
	skills, err := encodeSkills(ch.Skills)
	if err != nil {
		return fmt.Errorf("ошибка сериализации навыков: %w", err)
	}

	query := `
		INSERT INTO characters (id, account_id, name, name_key, password_hash, profession, premium, outfit,
		                        x, y, z, health, mana, capacity, skills, fight_mode, chase_mode, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			outfit = VALUES(outfit),
			x = VALUES(x),
			y = VALUES(y),
			z = VALUES(z),
			health = VALUES(health),
			mana = VALUES(mana),
			capacity = VALUES(capacity),
			skills = VALUES(skills),
			fight_mode = VALUES(fight_mode),
			chase_mode = VALUES(chase_mode),
			last_login = VALUES(last_login)
	`

	var lastLogin interface{}
	if !ch.LastLogin.IsZero() {
		lastLogin = ch.LastLogin.UTC().Truncate(time.Second)
	}
	_, err = r.tx.ExecContext(ctx, query,
		ch.ID, ch.AccountID, ch.Name, NormalizeName(ch.Name), ch.PasswordHash, ch.Profession, ch.Premium, string(outfit),
		ch.Location.X, ch.Location.Y, ch.Location.Z, ch.Health, ch.Mana, ch.Capacity, skills,
		ch.FightMode, ch.ChaseMode, lastLogin,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения персонажа %s: %w", ch.Name, err)
	}
	return nil
}

// encodeSkills сериализует навыки по именам, чтобы порядок enum не влиял на данные
func encodeSkills(skills map[creature.SkillType]int64) (string, error) {
	byName := make(map[string]int64, len(skills))
	for t, c := range skills {
		byName[t.String()] = c
	}
	data, err := json.Marshal(byName)
	return string(data), err
}

func decodeSkills(s string) (map[creature.SkillType]int64, error) {
	var byName map[string]int64
	if err := json.Unmarshal([]byte(s), &byName); err != nil {
		return nil, err
	}
	skills := make(map[creature.SkillType]int64, len(byName))
	for t := creature.SkillExperience; t <= creature.SkillFishing; t++ {
		if c, ok := byName[t.String()]; ok {
			skills[t] = c
		}
	}
	return skills, nil
}
