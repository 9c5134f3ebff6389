package sqlinline

const QSelectIntegrationToken = `--sql 3a5c7e9b-1d4f-4a6c-8e0b-2f4a6c8e0b2d
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql 6c8e0a2d-4f7b-4c9e-a1d3-5b7d9f1a3c5e
insert into integration_tokens(provider, token, properties, created_at, updated_at)
values ($1::text, $2::text, $3::jsonb, now(), now())
on conflict (provider)
do update set token = excluded.token, properties = excluded.properties, updated_at = now();
`
