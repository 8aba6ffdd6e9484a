package log

import "context"

// WithService attributes records to a running service.
func WithService(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, name)
}

// WithStartupTask attributes records to a startup task.
func WithStartupTask(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, StartupTaskKey, name)
}

// WithExtension attributes records to the extension being loaded.
func WithExtension(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ExtensionKey, name)
}

// WithMigration attributes records to the migration being applied.
func WithMigration(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, MigrationKey, id)
}

// WithCommand attributes records to an invoked bot command.
func WithCommand(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, CommandKey, name)
}

// WithAuthor attributes records to the author of the invoking message.
func WithAuthor(ctx context.Context, author string) context.Context {
	return context.WithValue(ctx, AuthorKey, author)
}
