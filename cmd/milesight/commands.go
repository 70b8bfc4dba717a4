package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog/log"

	milesight "github.com/corgan2222/milesight-gateway-api"
	"github.com/corgan2222/milesight-gateway-api/internal/config"
	"github.com/corgan2222/milesight-gateway-api/internal/export"
	"github.com/corgan2222/milesight-gateway-api/internal/publish"
)

var errUsage = errors.New("invalid arguments")

// app carries what every command needs.
type app struct {
	client *milesight.Client
	format export.Format
	dir    string
	out    io.Writer
	// sink is nil unless results are published.
	sink *publish.Sink
}

type command struct {
	help string
	run  func(ctx context.Context, a *app, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"devices":      {help: "export all devices to stdout and <dir>/devices_export.csv", run: runDevices},
		"search":       {help: "search devices: search <term>", run: runSearch},
		"codecs":       {help: "export codec scripts to <dir>/payload_codecs: codecs [custom|default]", run: runCodecs},
		"codec":        {help: "show one payload codec: codec <id>", run: runCodec},
		"device-codec": {help: "show the codec of a device: device-codec <devEUI>", run: runDeviceCodec},
		"gateways":     {help: "export the gateway fleet to <dir>/gateways.<format>: gateways [organizationID]", run: runGateways},
		"applications": {help: "list all applications", run: runApplications},
		"profiles":     {help: "list device profiles: profiles [organizationID] [applicationID]", run: runProfiles},
		"settings":     {help: "show network server settings", run: runSettings},
		"forwarder":    {help: "show the packet forwarder configuration", run: runForwarder},
		"integration":  {help: "show an application integration: integration <appID> [mqtt|http]", run: runIntegration},
	}
}

func newApp(cfg config.Config, out io.Writer) (*app, error) {
	format, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return nil, err
	}

	client, err := milesight.New(
		cfg.Gateway.BaseURL,
		cfg.Gateway.Port,
		cfg.Gateway.Credentials(),
		milesight.WithLogger(log.Logger),
	)
	if err != nil {
		return nil, err
	}

	return &app{
		client: client,
		format: format,
		dir:    cfg.Export.Dir,
		out:    out,
	}, nil
}

// run logs in and dispatches args[0].
func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	if _, err := a.client.Login(ctx); err != nil {
		return err
	}
	if exp, ok := a.client.TokenExpiry(); ok {
		log.Debug().Time("expires", exp).Msg("logged in")
	}

	return cmd.run(ctx, a, args[1:])
}

// listing is the document written for list commands.
type listing struct {
	Total int                `json:"total" yaml:"total"`
	Items []milesight.Record `json:"items" yaml:"items"`
}

// emitList writes records and publishes them under kind.
func (a *app) emitList(ctx context.Context, kind string, records []milesight.Record, total int) error {
	if err := export.WriteDocument(a.out, listing{Total: total, Items: records}, a.format); err != nil {
		return err
	}

	if a.sink == nil {
		return nil
	}
	_, err := a.sink.Records(ctx, kind, records)
	return err
}

// emitDocument writes doc and publishes it under kind.
func (a *app) emitDocument(kind string, doc any) error {
	if err := export.WriteDocument(a.out, doc, a.format); err != nil {
		return err
	}

	if a.sink == nil {
		return nil
	}
	return a.sink.Document(kind, doc)
}

// incomplete logs a list fetch that stopped at a failed page. The records
// fetched before it are still exported, with a total of 0.
func incomplete(kind string, records []milesight.Record, err error) {
	log.Warn().Err(err).
		Str("kind", kind).
		Int("fetched", len(records)).
		Msg("list is incomplete, exporting the records fetched so far")
}

func arg(args []string, i int, def string) string {
	if i < len(args) && args[i] != "" {
		return args[i]
	}
	return def
}

func runDevices(ctx context.Context, a *app, _ []string) error {
	devices, total, err := a.client.Devices(ctx)
	if err != nil {
		incomplete("devices", devices, err)
	}

	path := filepath.Join(a.dir, "devices_export.csv")
	if err := export.SaveDevicesCSV(path, devices); err != nil {
		return err
	}
	log.Info().Str("path", path).Int("devices", len(devices)).Msg("devices saved")

	return a.emitList(ctx, "devices", devices, total)
}

func runSearch(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: search <term>", errUsage)
	}

	devices, err := a.client.SearchDevices(ctx, args[0])
	if err != nil {
		return err
	}

	return a.emitList(ctx, "devices", devices, len(devices))
}

func runCodecs(ctx context.Context, a *app, args []string) error {
	codecType := milesight.CodecType(arg(args, 0, string(milesight.CodecTypeCustom)))
	if codecType != milesight.CodecTypeCustom && codecType != milesight.CodecTypeDefault {
		return fmt.Errorf("%w: codec type %q", errUsage, codecType)
	}

	codecs, total, err := a.client.PayloadCodecs(ctx, milesight.CodecQuery{Type: codecType})
	if err != nil {
		incomplete("codecs", codecs, err)
	}

	dir := filepath.Join(a.dir, "payload_codecs")
	if err := export.SaveCodecScripts(dir, codecs); err != nil {
		log.Warn().Err(err).Msg("some codecs were not saved")
	}
	log.Info().Str("dir", dir).Str("type", string(codecType)).Int("total", total).Msg("codec scripts saved")

	return a.emitList(ctx, "codecs", codecs, total)
}

func runCodec(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: codec <id>", errUsage)
	}

	codec, err := a.client.PayloadCodec(ctx, args[0])
	if err != nil {
		return err
	}

	return a.emitDocument("codec", codec)
}

func runDeviceCodec(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: device-codec <devEUI>", errUsage)
	}

	codec, err := a.client.PayloadCodecByDevice(ctx, args[0])
	if err != nil {
		return err
	}

	return a.emitDocument("codec", codec)
}

func runGateways(ctx context.Context, a *app, args []string) error {
	gateways, total, err := a.client.GatewayFleet(ctx, milesight.GatewayQuery{
		OrganizationID: arg(args, 0, "1"),
	})
	if err != nil {
		return err
	}

	path := filepath.Join(a.dir, "gateways."+string(a.format))
	if err := export.SaveDocument(path, listing{Total: total, Items: gateways}, a.format); err != nil {
		return err
	}
	log.Info().Str("path", path).Int("gateways", len(gateways)).Int("total", total).Msg("gateway fleet saved")

	return a.emitList(ctx, "gateways", gateways, total)
}

func runApplications(ctx context.Context, a *app, _ []string) error {
	apps, total, err := a.client.Applications(ctx)
	if err != nil {
		incomplete("applications", apps, err)
	}

	return a.emitList(ctx, "applications", apps, total)
}

func runProfiles(ctx context.Context, a *app, args []string) error {
	profiles, total, err := a.client.Profiles(ctx, milesight.ProfileQuery{
		OrganizationID: arg(args, 0, "1"),
		ApplicationID:  arg(args, 1, ""),
	})
	if err != nil {
		incomplete("profiles", profiles, err)
	}

	return a.emitList(ctx, "profiles", profiles, total)
}

func runSettings(ctx context.Context, a *app, _ []string) error {
	settings, err := a.client.NetworkServerSettings(ctx)
	if err != nil {
		return err
	}

	return a.emitDocument("settings", settings)
}

func runForwarder(ctx context.Context, a *app, _ []string) error {
	forwarder, servers, err := a.client.PacketForwarder(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("servers", servers).Msg("packet forwarder")

	return a.emitDocument("forwarder", forwarder)
}

func runIntegration(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: integration <appID> [mqtt|http]", errUsage)
	}

	kind := milesight.IntegrationType(arg(args, 1, string(milesight.IntegrationMQTT)))
	if kind != milesight.IntegrationMQTT && kind != milesight.IntegrationHTTP {
		return fmt.Errorf("%w: integration type %q", errUsage, kind)
	}

	integration, err := a.client.DataTransmissionIntegration(ctx, args[0], kind)
	if err != nil {
		return err
	}

	return a.emitDocument("integration", integration)
}
