package config

// AnchorSchemaName is the Postgres schema holding all anchor-service tables.
const AnchorSchemaName = "anchoring"
