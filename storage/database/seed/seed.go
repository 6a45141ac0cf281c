// Package seed loads demo data (a church with its users, people, ministries, cells and events) from YAML.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/event"
	"github.com/trezcool/igreja/core/ministry"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/user"
)

//go:embed demo.yaml
var demo []byte

var (
	ErrAlreadySeeded = errors.New("church already exists")
	ErrUnknownRef    = errors.New("unknown reference")
)

// lookup resolves a name to the ID created for it. Empty names resolve to an empty ID.
func lookup(ids map[string]string, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	id, ok := ids[name]
	if !ok {
		return "", errors.Wrap(ErrUnknownRef, name)
	}
	return id, nil
}

type (
	Data struct {
		Church     church.NewChurch `yaml:"church"`
		Users      []User           `yaml:"users"`
		People     []Person         `yaml:"people"`
		Ministries []Ministry       `yaml:"ministries"`
		Networks   []Network        `yaml:"networks"`
		Cells      []Cell           `yaml:"cells"`
		Events     []Event          `yaml:"events"`
	}

	User struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Profile  string `yaml:"profile"`
		Password string `yaml:"password"`
	}

	Person struct {
		Name      string `yaml:"name"`
		Email     string `yaml:"email"`
		Mobile    string `yaml:"mobile"`
		Gender    string `yaml:"gender"`
		BirthDate string `yaml:"birth_date"`
		Status    string `yaml:"status"`
	}

	// Ministry, Network and Cell reference people by name.
	Ministry struct {
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Leader      string   `yaml:"leader"`
		Color       string   `yaml:"color"`
		Members     []string `yaml:"members"`
	}

	Network struct {
		Name       string `yaml:"name"`
		Supervisor string `yaml:"supervisor"`
		Color      string `yaml:"color"`
	}

	Cell struct {
		Name        string   `yaml:"name"`
		Network     string   `yaml:"network"`
		Leader      string   `yaml:"leader"`
		Weekday     string   `yaml:"weekday"`
		MeetingTime string   `yaml:"meeting_time"`
		Address     string   `yaml:"address"`
		Members     []string `yaml:"members"`
	}

	Event struct {
		Name                 string `yaml:"name"`
		Type                 string `yaml:"type"`
		InDays               int    `yaml:"in_days"`
		Location             string `yaml:"location"`
		Capacity             int    `yaml:"capacity"`
		RequiresRegistration bool   `yaml:"requires_registration"`
	}
)

// Load decodes seed data. Unknown keys are rejected.
func Load(r io.Reader) (Data, error) {
	var data Data
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		return Data{}, errors.Wrap(err, "decoding seed data")
	}
	return data, nil
}

// Demo returns the embedded demo data set.
func Demo() (Data, error) {
	return Load(bytes.NewReader(demo))
}

// Seeder creates seed data through the services, so every record goes through the usual validation.
type Seeder struct {
	Churches   *church.Service
	Users      *user.Service
	People     *person.Service
	Ministries *ministry.Service
	Events     *event.Service
}

type Result struct {
	Church     church.Church
	Users      int
	People     int
	Ministries int
	Cells      int
	Events     int
}

func (s Seeder) Run(ctx context.Context, data Data) (Result, error) {
	var res Result
	if _, err := s.Churches.GetByName(ctx, data.Church.Name); err == nil {
		return res, errors.Wrap(ErrAlreadySeeded, data.Church.Name)
	} else if !core.IsNotFound(err) {
		return res, err
	}

	ch, err := s.Churches.Create(ctx, data.Church)
	if err != nil {
		return res, errors.Wrap(err, "creating church")
	}
	res.Church = ch
	actor := core.Actor{ChurchID: ch.ID, Profile: user.ProfileAdmin, Name: "seed"}

	for _, u := range data.Users {
		_, err := s.Users.Create(ctx, actor, user.NewUser{
			Name: u.Name, Email: u.Email, Profile: u.Profile, Password: u.Password, PasswordConfirm: u.Password,
		})
		if err != nil {
			return res, errors.Wrapf(err, "creating user %s", u.Email)
		}
		res.Users++
	}

	people := make(map[string]string, len(data.People)) // name -> id
	for _, p := range data.People {
		created, err := s.People.Create(ctx, actor, person.Input{
			Name: p.Name, Email: p.Email, Mobile: p.Mobile, Gender: p.Gender, BirthDate: p.BirthDate, Status: p.Status,
		})
		if err != nil {
			return res, errors.Wrapf(err, "creating person %s", p.Name)
		}
		people[p.Name] = created.ID
		res.People++
	}

	for _, m := range data.Ministries {
		leaderID, err := lookup(people, m.Leader)
		if err != nil {
			return res, errors.Wrapf(err, "ministry %s", m.Name)
		}
		created, err := s.Ministries.CreateMinistry(ctx, actor, ministry.MinistryInput{
			Name: m.Name, Description: m.Description, LeaderID: leaderID, Color: m.Color,
		})
		if err != nil {
			return res, errors.Wrapf(err, "creating ministry %s", m.Name)
		}
		for _, name := range m.Members {
			personID, err := lookup(people, name)
			if err != nil {
				return res, errors.Wrapf(err, "ministry %s", m.Name)
			}
			if err = s.Ministries.AddMinistryMember(ctx, actor, created.ID, ministry.NewMember{PersonID: personID}); err != nil {
				return res, errors.Wrapf(err, "adding %s to ministry %s", name, m.Name)
			}
		}
		res.Ministries++
	}

	networks := make(map[string]string, len(data.Networks))
	for _, n := range data.Networks {
		supervisorID, err := lookup(people, n.Supervisor)
		if err != nil {
			return res, errors.Wrapf(err, "network %s", n.Name)
		}
		created, err := s.Ministries.CreateNetwork(ctx, actor, ministry.NetworkInput{
			Name: n.Name, SupervisorID: supervisorID, Color: n.Color,
		})
		if err != nil {
			return res, errors.Wrapf(err, "creating network %s", n.Name)
		}
		networks[n.Name] = created.ID
	}

	for _, c := range data.Cells {
		networkID, err := lookup(networks, c.Network)
		if err != nil {
			return res, errors.Wrapf(err, "cell %s", c.Name)
		}
		leaderID, err := lookup(people, c.Leader)
		if err != nil {
			return res, errors.Wrapf(err, "cell %s", c.Name)
		}
		created, err := s.Ministries.CreateCell(ctx, actor, ministry.CellInput{
			Name:        c.Name,
			NetworkID:   networkID,
			LeaderID:    leaderID,
			Weekday:     c.Weekday,
			MeetingTime: c.MeetingTime,
			Address:     c.Address,
		})
		if err != nil {
			return res, errors.Wrapf(err, "creating cell %s", c.Name)
		}
		for _, name := range c.Members {
			personID, err := lookup(people, name)
			if err != nil {
				return res, errors.Wrapf(err, "cell %s", c.Name)
			}
			if err = s.Ministries.AddCellMember(ctx, actor, created.ID, ministry.NewMember{PersonID: personID}); err != nil {
				return res, errors.Wrapf(err, "adding %s to cell %s", name, c.Name)
			}
		}
		res.Cells++
	}

	today := core.Today(core.NowFunc())
	for _, e := range data.Events {
		_, err := s.Events.Create(ctx, actor, event.EventInput{
			Name:                 e.Name,
			Type:                 e.Type,
			StartsAt:             today.AddDate(0, 0, e.InDays).Add(19 * time.Hour),
			Location:             e.Location,
			Capacity:             e.Capacity,
			RequiresRegistration: e.RequiresRegistration,
		})
		if err != nil {
			return res, errors.Wrapf(err, "creating event %s", e.Name)
		}
		res.Events++
	}
	return res, nil
}
