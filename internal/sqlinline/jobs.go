package sqlinline

// Sketch batch job queue. The enqueue query burns quota and inserts the job
// in one statement, so two concurrent submissions cannot both pass the
// check; an exhausted quota simply yields no row.

const QEnqueueSketchJob = `--sql 7c1f04da-9b62-4f1e-8a07-3d9f52c14b68
with quota as (
  update users
  set remaining_quota = remaining_quota - 1
  where id = $1::uuid and remaining_quota > 0
  returning remaining_quota
)
insert into jobs(id, user_id, task_type, status, style, payload, item_count, concurrency, base_seed, created_at, updated_at)
select gen_random_uuid(), $1::uuid, 'SKETCH_BATCH', 'QUEUED', $2::text, $3::jsonb, $4::int, $5::int, $6::bigint, now(), now()
from quota
returning id, (select remaining_quota from quota);
`

const QWorkerClaimJob = `--sql 2f8e6a1b-4c3d-4e5f-9a0b-1c2d3e4f5a6b
update jobs
set status = 'RUNNING', updated_at = now()
where id = (
  select id
  from jobs
  where status = 'QUEUED' and task_type = 'SKETCH_BATCH'
  order by created_at
  for update skip locked
  limit 1
)
returning id, user_id, style, payload, item_count, concurrency, base_seed;
`

const QUpdateJobResult = `--sql 5a2c9f1e-8b4d-4c6a-9e0f-3b5d7a1c9e2f
update jobs
set status = $2::text,
    result = $3::jsonb,
    error_message = nullif($4::text, ''),
    updated_at = now()
where id = $1::uuid;
`

const QSelectJobStatus = `--sql 1e7a3c5b-9d2f-4b8e-a6c0-4f8b2d6e0a3c
select id, user_id, task_type, status, style, item_count, concurrency, created_at, updated_at, coalesce(result, '{}'::jsonb), coalesce(error_message, '')
from jobs
where id = $1::uuid and user_id = $2::uuid
limit 1;
`
