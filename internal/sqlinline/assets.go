package sqlinline

const QInsertAsset = `--sql 8b3d5f7a-1c9e-4d2b-a0f4-6e8c0a2b4d6f
insert into assets(
  id,
  user_id,
  kind,
  job_id,
  item_index,
  storage_key,
  mime,
  bytes,
  width,
  height,
  seed,
  properties,
  created_at,
  updated_at
) values (
  gen_random_uuid(),
  $1::uuid,
  'SKETCH',
  $2::uuid,
  $3::int,
  $4::text,
  $5::text,
  $6::bigint,
  $7::int,
  $8::int,
  $9::bigint,
  $10::jsonb,
  now(),
  now()
) returning id;
`

const QSelectJobAssets = `--sql 4f6a8c0e-2d5b-4e7a-9c1f-8a0b2c4d6e8a
select id, item_index, storage_key, mime, bytes, width, height, seed, properties, created_at
from assets
where job_id = $1::uuid and user_id = $2::uuid
order by item_index;
`
