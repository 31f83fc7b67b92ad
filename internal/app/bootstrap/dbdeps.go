// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ideaslab/server/internal/app/bot"
	commentstore "github.com/ideaslab/server/internal/app/store/comments"
	"github.com/ideaslab/server/internal/app/store/messagestats"
	"github.com/ideaslab/server/internal/app/store/oauthstate"
	"github.com/ideaslab/server/internal/app/store/pins"
	poststore "github.com/ideaslab/server/internal/app/store/posts"
	settingsstore "github.com/ideaslab/server/internal/app/store/settings"
	userstore "github.com/ideaslab/server/internal/app/store/users"
	"github.com/ideaslab/server/internal/app/system/discord"
	"github.com/ideaslab/server/internal/app/system/token"
)

// DBDeps holds database and back-end dependencies for the app.
//
// Everything here is built once in ConnectDB and shared by the later
// lifecycle hooks: EnsureSchema creates the indexes, Startup opens the
// gateway, BuildHandler wires the HTTP features, Shutdown tears it all
// down. All fields are pointers, so the struct copies WAFFLE passes
// around refer to the same backends.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Users    *userstore.Store
	Pins     *pins.Store
	Posts    *poststore.Store
	Comments *commentstore.Store
	Settings *settingsstore.Store
	Stats    *messagestats.Store
	States   *oauthstate.Store

	Tokens *token.Issuer
	Guild  *discord.Client
	Bot    *bot.Bot
}
