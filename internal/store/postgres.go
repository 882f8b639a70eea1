package store

import (
	"encoding/json"

	"main/internal/account"
	"main/internal/errors"
	"main/internal/exec"
	"main/internal/model"
	"main/internal/order"
	"main/pkg/conn"
)

type orderEventRecord struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	ClientOrderID string `gorm:"index;not null"`
	EventType     string `gorm:"not null"`
	TsEvent       int64  `gorm:"not null"`
	Payload       []byte `gorm:"type:jsonb;not null"`
}

func (orderEventRecord) TableName() string { return "order_events" }

type positionEventRecord struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	PositionID string `gorm:"index;not null"`
	EventType  string `gorm:"not null"`
	TsEvent    int64  `gorm:"not null"`
	Payload    []byte `gorm:"type:jsonb;not null"`
}

func (positionEventRecord) TableName() string { return "position_events" }

type accountStateRecord struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	AccountID string `gorm:"index;not null"`
	TsEvent   int64  `gorm:"not null"`
	Payload   []byte `gorm:"type:jsonb;not null"`
}

func (accountStateRecord) TableName() string { return "account_states" }

// Postgres persists event streams through the shared gorm client.
// Stream order is the insertion order of the autoincrement key.
type Postgres struct {
	client *conn.Client
}

var _ Store = (*Postgres)(nil)

// NewPostgres opens a connection and migrates the stream tables.
func NewPostgres(option conn.Option) (*Postgres, error) {
	client, err := conn.New(option)
	if err != nil {
		return nil, errors.Wrap(err, "open store connection")
	}
	if err := client.Migrate(
		&orderEventRecord{},
		&positionEventRecord{},
		&accountStateRecord{},
	); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "migrate store tables")
	}
	return &Postgres{client: client}, nil
}

func (p *Postgres) AppendOrderEvent(ev order.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal order event")
	}
	record := orderEventRecord{
		ClientOrderID: string(ev.ClientOrderID),
		EventType:     ev.Type.String(),
		TsEvent:       int64(ev.TsEvent),
		Payload:       payload,
	}
	return p.client.DB().Create(&record).Error
}

func (p *Postgres) AppendPositionEvent(ev exec.PositionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal position event")
	}
	record := positionEventRecord{
		PositionID: string(ev.PositionID),
		EventType:  ev.Type.String(),
		TsEvent:    int64(ev.TsEvent),
		Payload:    payload,
	}
	return p.client.DB().Create(&record).Error
}

func (p *Postgres) AppendAccountState(st account.State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "marshal account state")
	}
	record := accountStateRecord{
		AccountID: string(st.AccountID),
		TsEvent:   int64(st.TsEvent),
		Payload:   payload,
	}
	return p.client.DB().Create(&record).Error
}

func (p *Postgres) OrderIDs() ([]model.ClientOrderID, error) {
	var values []string
	err := p.client.DB().
		Model(&orderEventRecord{}).
		Distinct("client_order_id").
		Order("client_order_id").
		Pluck("client_order_id", &values).Error
	if err != nil {
		return nil, errors.Wrap(err, "list order ids")
	}
	ids := make([]model.ClientOrderID, len(values))
	for i, v := range values {
		ids[i] = model.ClientOrderID(v)
	}
	return ids, nil
}

func (p *Postgres) OrderEvents(id model.ClientOrderID) ([]order.Event, error) {
	var records []orderEventRecord
	err := p.client.DB().
		Where("client_order_id = ?", string(id)).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrapf(err, "load order events for %s", id)
	}
	events := make([]order.Event, len(records))
	for i, record := range records {
		if err := json.Unmarshal(record.Payload, &events[i]); err != nil {
			return nil, errors.Wrapf(err, "unmarshal order event %d", record.ID)
		}
	}
	return events, nil
}

func (p *Postgres) PositionIDs() ([]model.PositionID, error) {
	var values []string
	err := p.client.DB().
		Model(&positionEventRecord{}).
		Distinct("position_id").
		Order("position_id").
		Pluck("position_id", &values).Error
	if err != nil {
		return nil, errors.Wrap(err, "list position ids")
	}
	ids := make([]model.PositionID, len(values))
	for i, v := range values {
		ids[i] = model.PositionID(v)
	}
	return ids, nil
}

func (p *Postgres) PositionEvents(id model.PositionID) ([]exec.PositionEvent, error) {
	var records []positionEventRecord
	err := p.client.DB().
		Where("position_id = ?", string(id)).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrapf(err, "load position events for %s", id)
	}
	events := make([]exec.PositionEvent, len(records))
	for i, record := range records {
		if err := json.Unmarshal(record.Payload, &events[i]); err != nil {
			return nil, errors.Wrapf(err, "unmarshal position event %d", record.ID)
		}
	}
	return events, nil
}

func (p *Postgres) AccountIDs() ([]model.AccountID, error) {
	var values []string
	err := p.client.DB().
		Model(&accountStateRecord{}).
		Distinct("account_id").
		Order("account_id").
		Pluck("account_id", &values).Error
	if err != nil {
		return nil, errors.Wrap(err, "list account ids")
	}
	ids := make([]model.AccountID, len(values))
	for i, v := range values {
		ids[i] = model.AccountID(v)
	}
	return ids, nil
}

func (p *Postgres) AccountStates(id model.AccountID) ([]account.State, error) {
	var records []accountStateRecord
	err := p.client.DB().
		Where("account_id = ?", string(id)).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrapf(err, "load account states for %s", id)
	}
	states := make([]account.State, len(records))
	for i, record := range records {
		if err := json.Unmarshal(record.Payload, &states[i]); err != nil {
			return nil, errors.Wrapf(err, "unmarshal account state %d", record.ID)
		}
	}
	return states, nil
}

func (p *Postgres) Close() error { return p.client.Close() }
