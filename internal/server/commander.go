// Package server runs catalog sessions: one commander per connection,
// receiving command symbols and executing the matching handler until the
// client ends the session or the connection dies.
package server

import (
	"errors"
	"io"

	"github.com/rs/zerolog"

	"dev.c0redev.catalog/internal/auth"
	"dev.c0redev.catalog/internal/blob"
	"dev.c0redev.catalog/internal/catalog"
	"dev.c0redev.catalog/internal/proto"
	"dev.c0redev.catalog/internal/secure"
	"dev.c0redev.catalog/internal/similarity"
	"dev.c0redev.catalog/internal/store"
)

// Commander executes one client session. It owns the session's transport and
// tracks which user, if any, has authenticated.
type Commander struct {
	codec     *proto.Codec
	db        *store.DB
	blobs     *blob.Store
	batchSize int
	log       zerolog.Logger

	user *store.User
}

// NewCommander wraps an accepted connection. The engine is shared across
// sessions (read-only after construction); everything else is per-session.
func NewCommander(conn io.ReadWriteCloser, engine *secure.Engine, db *store.DB, blobs *blob.Store, batchSize int, log zerolog.Logger) *Commander {
	return &Commander{
		codec:     proto.NewCodec(proto.NewTransport(conn, engine)),
		db:        db,
		blobs:     blobs,
		batchSize: batchSize,
		log:       log,
	}
}

// Run receives and executes commands until the client sends EXIT (nil) or
// the session fails (transport or protocol error).
func (c *Commander) Run() error {
	defer c.codec.Transport().Shutdown()
	for {
		cmd, err := c.codec.ReceiveCommand()
		if err != nil {
			return err
		}
		c.log.Info().Stringer("command", cmd).Msg("received command")

		switch cmd {
		case proto.CommandCreateUser:
			err = c.createUser()
		case proto.CommandLogin:
			err = c.login()
		case proto.CommandAddItem:
			err = c.addItem()
		case proto.CommandUpdateItem:
			err = c.updateItem()
		case proto.CommandDeleteItem:
			err = c.deleteItem()
		case proto.CommandSearchByItem:
			err = c.searchByItem()
		case proto.CommandBrowseByTag:
			err = c.browse(true)
		case proto.CommandBrowseAll:
			err = c.browse(false)
		case proto.CommandExit:
			return nil
		default:
			// ParseCommand admits only the symbols above; reaching here means
			// a handler was not registered for a known command.
			return errors.New("server: command without handler: " + cmd.String())
		}
		if err != nil {
			return err
		}
	}
}

func (c *Commander) loggedIn() bool { return c.user != nil }

func (c *Commander) createUser() error {
	username, err := c.codec.ReceiveString()
	if err != nil {
		return err
	}
	password, err := c.codec.ReceiveString()
	if err != nil {
		return err
	}

	existing, err := c.db.UserByName(username)
	if err != nil {
		return err
	}
	if username == "" || existing != nil {
		return c.codec.SendSignal(proto.SignalFailure)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return c.codec.SendSignal(proto.SignalFailure)
		}
		return err
	}
	id, err := c.db.CreateUser(username, hash)
	if err != nil {
		return err
	}
	c.user = &store.User{ID: id, Username: username}
	c.log.Info().Str("user", username).Msg("user created")
	return c.codec.SendSignal(proto.SignalSuccess)
}

func (c *Commander) login() error {
	username, err := c.codec.ReceiveString()
	if err != nil {
		return err
	}
	password, err := c.codec.ReceiveString()
	if err != nil {
		return err
	}

	u, err := c.db.UserByName(username)
	if err != nil {
		return err
	}
	// a missing user and a wrong password are indistinguishable to the peer
	if u == nil || !auth.CheckPassword(password, u.PasswordHash) {
		c.log.Info().Str("user", username).Msg("login rejected")
		return c.codec.SendSignal(proto.SignalFailure)
	}
	c.user = u
	c.log.Info().Str("user", username).Msg("login accepted")
	return c.codec.SendSignal(proto.SignalSuccess)
}

// validTags filters a received tag id list against the taxonomy.
func validTags(ids []int) bool {
	for _, id := range ids {
		if !catalog.Valid(id) {
			return false
		}
	}
	return true
}

func (c *Commander) addItem() error {
	// consume every request field before deciding anything, so a rejection
	// leaves the stream aligned for the next command
	data, err := c.codec.ReceiveBytes()
	if err != nil {
		return err
	}
	name, err := c.codec.ReceiveString()
	if err != nil {
		return err
	}
	cost, err := c.codec.ReceiveFloat()
	if err != nil {
		return err
	}
	quantity, err := c.codec.ReceiveInt()
	if err != nil {
		return err
	}
	tags, err := c.codec.ReceiveByteList()
	if err != nil {
		return err
	}

	if !c.loggedIn() || name == "" || len(data) == 0 || cost < 0 || quantity < 0 || !validTags(tags) {
		return c.codec.SendSignal(proto.SignalFailure)
	}
	if existing, err := c.db.ItemByName(name); err != nil {
		return err
	} else if existing != nil {
		c.log.Info().Str("item", name).Msg("rejected: name already listed")
		return c.codec.SendSignal(proto.SignalFailure)
	}
	blobID := blob.ID(data)
	if dup, err := c.db.HasBlob(blobID); err != nil {
		return err
	} else if dup {
		c.log.Info().Str("item", name).Msg("rejected: identical blob already listed")
		return c.codec.SendSignal(proto.SignalFailure)
	}

	if _, err := c.blobs.Put(data); err != nil {
		return err
	}
	vector := similarity.Serialize(similarity.FeatureVector(data))
	id, err := c.db.AddItem(&store.Item{
		Name:     name,
		BlobID:   blobID,
		Vector:   vector,
		Cost:     float64(cost),
		Quantity: quantity,
		SellerID: c.user.ID,
	}, tags)
	if err != nil {
		return err
	}
	c.log.Info().Int64("id", id).Str("item", name).Msg("item added")
	if err := c.codec.SendSignal(proto.SignalSuccess); err != nil {
		return err
	}
	return c.codec.SendInt(int(id))
}

func (c *Commander) updateItem() error {
	id, err := c.codec.ReceiveInt()
	if err != nil {
		return err
	}
	cost, err := c.codec.ReceiveFloat()
	if err != nil {
		return err
	}
	quantity, err := c.codec.ReceiveInt()
	if err != nil {
		return err
	}

	if !c.loggedIn() || cost < 0 || quantity < 0 {
		return c.codec.SendSignal(proto.SignalFailure)
	}
	ok, err := c.db.UpdateItem(int64(id), float64(cost), quantity)
	if err != nil {
		return err
	}
	if !ok {
		return c.codec.SendSignal(proto.SignalFailure)
	}
	c.log.Info().Int("id", id).Msg("item updated")
	return c.codec.SendSignal(proto.SignalSuccess)
}

func (c *Commander) deleteItem() error {
	id, err := c.codec.ReceiveInt()
	if err != nil {
		return err
	}

	if !c.loggedIn() {
		return c.codec.SendSignal(proto.SignalFailure)
	}
	item, err := c.db.ItemByID(int64(id))
	if err != nil {
		return err
	}
	if item == nil {
		return c.codec.SendSignal(proto.SignalFailure)
	}
	if _, err := c.db.DeleteItem(item.ID); err != nil {
		return err
	}
	if err := c.blobs.Delete(item.BlobID); err != nil {
		return err
	}
	c.log.Info().Int("id", id).Msg("item deleted")
	return c.codec.SendSignal(proto.SignalSuccess)
}

func (c *Commander) searchByItem() error {
	data, err := c.codec.ReceiveBytes()
	if err != nil {
		return err
	}
	if _, err := c.codec.ReceiveString(); err != nil { // reference filename, unused
		return err
	}

	streamer := proto.NewStreamer(c.codec, c.batchSize)
	if !c.loggedIn() {
		// an unauthenticated search streams like an empty result set,
		// keeping the exchange aligned
		return streamer.Send(emptySource{})
	}

	vectors, err := c.db.Vectors()
	if err != nil {
		return err
	}
	query := similarity.FeatureVector(data)
	candidates := make([]similarity.Candidate, 0, len(vectors))
	for _, v := range vectors {
		vec, err := similarity.Deserialize(v.Vector)
		if err != nil {
			return err
		}
		candidates = append(candidates, similarity.Candidate{ID: int(v.ID), Vector: vec})
	}
	ranked := similarity.Rank(query, candidates)
	c.log.Info().Int("candidates", len(ranked)).Msg("similarity search")
	return streamer.Send(&rankedSource{db: c.db, blobs: c.blobs, ids: ranked})
}

func (c *Commander) browse(withTags bool) error {
	var tags []int
	if withTags {
		var err error
		if tags, err = c.codec.ReceiveByteList(); err != nil {
			return err
		}
	}

	streamer := proto.NewStreamer(c.codec, c.batchSize)
	if !c.loggedIn() || (withTags && !validTags(tags)) {
		return streamer.Send(emptySource{})
	}
	c.log.Info().Ints("tags", tags).Msg("browse")
	return streamer.Send(&tagSource{db: c.db, blobs: c.blobs, tags: tags})
}
