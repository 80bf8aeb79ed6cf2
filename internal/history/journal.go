package history

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"git.lost.host/meutraa/recut/internal/edit"
	"git.lost.host/meutraa/recut/internal/music"
)

// DefaultPath is where the journal lives unless configured otherwise.
const DefaultPath = "./recut.db"

// Entry is one applied edit. Nothing here is read back into a session.
type Entry struct {
	ID        int64
	Session   uuid.UUID
	CreatedAt time.Time
	ScoreSum  string
	Command   string
	Kept      []string
	Cuts      []edit.CutPoint
	Output    string
}

type Journal struct {
	db *sql.DB
}

func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if nil != err {
		return nil, errors.Wrapf(err, "unable to open edit history %s", path)
	}

	initStatement := `
	create table if not exists edits
	  (
		  id integer not null primary key,
		  session text not null,
		  created integer not null,
		  sum text not null,
		  command text,
		  kept blob,
		  cuts blob,
		  output text
	  );
	`
	if _, err := db.Exec(initStatement); nil != err {
		db.Close()
		return nil, errors.Wrap(err, "unable to create edit history table")
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if nil != j.db {
		return j.db.Close()
	}
	return nil
}

// HashScore identifies a score by its sections and measure facts.
func HashScore(score *music.Score) string {
	data, _ := json.Marshal(struct {
		Measures []music.Measure
		Sections []music.Section
	}{score.Measures, score.Sections})
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (j *Journal) Record(e *Entry) error {
	kept, err := json.Marshal(e.Kept)
	if nil != err {
		return errors.Wrap(err, "unable to marshal kept sections")
	}
	cuts, err := json.Marshal(e.Cuts)
	if nil != err {
		return errors.Wrap(err, "unable to marshal cut points")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := j.db.Exec("insert into edits(session, created, sum, command, kept, cuts, output) values(?, ?, ?, ?, ?, ?, ?)",
		e.Session.String(), e.CreatedAt.UnixNano(), e.ScoreSum, e.Command, kept, cuts, e.Output)
	if nil != err {
		return errors.Wrap(err, "unable to save edit")
	}
	e.ID, _ = res.LastInsertId()
	return nil
}

// List returns every edit recorded for a score, oldest first.
func (j *Journal) List(sum string) ([]Entry, error) {
	rows, err := j.db.Query("select id, session, created, sum, command, kept, cuts, output from edits where sum = ? order by id", sum)
	if nil != err {
		return nil, errors.Wrap(err, "unable to load edits")
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e            Entry
			session      string
			created      int64
			kept, cuts   []byte
			command, out sql.NullString
		)
		if err := rows.Scan(&e.ID, &session, &created, &e.ScoreSum, &command, &kept, &cuts, &out); nil != err {
			return nil, errors.Wrap(err, "unable to read edit")
		}
		if e.Session, err = uuid.Parse(session); nil != err {
			return nil, errors.Wrapf(err, "edit %d has an invalid session", e.ID)
		}
		if err := json.Unmarshal(kept, &e.Kept); nil != err {
			return nil, errors.Wrapf(err, "unable to unmarshal kept sections of edit %d", e.ID)
		}
		if err := json.Unmarshal(cuts, &e.Cuts); nil != err {
			return nil, errors.Wrapf(err, "unable to unmarshal cut points of edit %d", e.ID)
		}
		e.CreatedAt = time.Unix(0, created)
		e.Command, e.Output = command.String, out.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
